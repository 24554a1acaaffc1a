package main

import (
	"flag"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"

	"fp/internal/lsp"
)

const (
	lsName  = "fp-lsp"
	version = "0.1"
)

var store = lsp.NewStore()
var handler protocol.Handler
var log = commonlog.GetLogger(lsName)

func main() {
	verbosity := flag.Int("v", 0, "log verbosity (0 = errors only)")
	logFile := flag.String("log", "", "log to this file instead of stderr")
	flag.Parse()

	var path *string
	if *logFile != "" {
		path = logFile
	}
	commonlog.Configure(*verbosity, path)

	handler = protocol.Handler{
		Initialize:                 initialize,
		Initialized:                initialized,
		Shutdown:                   shutdown,
		TextDocumentDidOpen:        textDocumentDidOpen,
		TextDocumentDidChange:      textDocumentDidChange,
		TextDocumentDidSave:        textDocumentDidSave,
		TextDocumentDidClose:       textDocumentDidClose,
		TextDocumentDefinition:     textDocumentDefinition,
		TextDocumentDocumentSymbol: textDocumentDocumentSymbol,
		TextDocumentHover:          textDocumentHover,
	}

	srv := server.NewServer(&handler, lsName, *verbosity > 1)
	if err := srv.RunStdio(); err != nil {
		log.Errorf("server stopped: %s", err)
	}
}

func initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	full := protocol.TextDocumentSyncKindFull
	caps := protocol.ServerCapabilities{
		TextDocumentSync: &protocol.TextDocumentSyncOptions{
			OpenClose: &protocol.True,
			Change:    &full,
			Save:      protocol.SaveOptions{IncludeText: &protocol.False},
		},
		DefinitionProvider:     true,
		DocumentSymbolProvider: true,
		HoverProvider:          true,
	}

	if params.ClientInfo != nil {
		log.Infof("client: %s", params.ClientInfo.Name)
	}

	return protocol.InitializeResult{
		Capabilities: caps,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    lsName,
			Version: ptrString(version),
		},
	}, nil
}

func initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	return nil
}

func shutdown(ctx *glsp.Context) error {
	protocol.SetTraceValue(protocol.TraceValueOff)
	return nil
}

func textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	uri := string(params.TextDocument.URI)
	store.Set(uri, params.TextDocument.Text, params.TextDocument.Version)
	return publishDiagnostics(ctx, uri, params.TextDocument.Text)
}

func textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	uri := string(params.TextDocument.URI)
	if len(params.ContentChanges) == 0 {
		return nil
	}

	text, ok := extractFullText(params.ContentChanges[len(params.ContentChanges)-1])
	if !ok {
		return nil
	}

	if !store.Set(uri, text, params.TextDocument.Version) {
		log.Debugf("stale change for %s (version %d)", uri, params.TextDocument.Version)
		return nil
	}
	return publishDiagnostics(ctx, uri, text)
}

func textDocumentDidSave(ctx *glsp.Context, params *protocol.DidSaveTextDocumentParams) error {
	uri := string(params.TextDocument.URI)
	if text, ok := store.Get(uri); ok {
		return publishDiagnostics(ctx, uri, text)
	}
	return nil
}

func textDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	uri := string(params.TextDocument.URI)
	store.Delete(uri)
	ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         protocol.DocumentUri(uri),
		Diagnostics: []protocol.Diagnostic{},
	})
	return nil
}

func textDocumentDefinition(ctx *glsp.Context, params *protocol.DefinitionParams) (any, error) {
	uri := string(params.TextDocument.URI)
	text, ok := store.Get(uri)
	if !ok || !lsp.IsSourceURI(uri) {
		return nil, nil
	}
	locs := lsp.DefinitionAt(uri, text, params.Position)
	if len(locs) == 0 {
		return nil, nil
	}
	return locs, nil
}

func textDocumentDocumentSymbol(ctx *glsp.Context, params *protocol.DocumentSymbolParams) (any, error) {
	uri := string(params.TextDocument.URI)
	text, ok := store.Get(uri)
	if !ok || !lsp.IsSourceURI(uri) {
		return []protocol.DocumentSymbol{}, nil
	}
	return lsp.DocumentSymbols(text), nil
}

func textDocumentHover(ctx *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	uri := string(params.TextDocument.URI)
	text, ok := store.Get(uri)
	if !ok || !lsp.IsSourceURI(uri) {
		return nil, nil
	}
	return lsp.HoverAt(text, params.Position), nil
}

func publishDiagnostics(ctx *glsp.Context, uri string, text string) error {
	diags := []protocol.Diagnostic{}
	if lsp.IsSourceURI(uri) {
		ds := lsp.Analyze(text)
		log.Debugf("%s: %d diagnostics", uri, len(ds))
		diags = lsp.ToLspDiagnostics(text, ds)
	}

	ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         protocol.DocumentUri(uri),
		Diagnostics: diags,
	})
	return nil
}

func extractFullText(change any) (string, bool) {
	switch typed := change.(type) {
	case protocol.TextDocumentContentChangeEventWhole:
		return typed.Text, true
	case protocol.TextDocumentContentChangeEvent:
		return typed.Text, true
	default:
		return "", false
	}
}

func ptrString(s string) *string { return &s }
