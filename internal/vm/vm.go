package vm

import (
	"fmt"

	"github.com/tliron/commonlog"

	"fp/internal/code"
	"fp/internal/limits"
	"fp/internal/value"
)

// StackSize is the default operand stack limit. It leaves room for every
// slot a 2-byte local index can address.
const StackSize = 1 << 17

type VM struct {
	chunk *code.Chunk
	ip    int

	stack []value.Value

	// globals grow on demand; defined tells a set Nil from an unset cell.
	globals []value.Value
	defined []bool

	maxStack int
	steps    *limits.Budget

	log commonlog.Logger
}

func New() *VM {
	return &VM{
		stack:    make([]value.Value, 0, 256),
		maxStack: StackSize,
		steps:    limits.NewBudget(0),
	}
}

// SetMaxStack caps the operand stack depth; 0 means unlimited.
func (m *VM) SetMaxStack(max int) {
	if max < 0 {
		max = 0
	}
	m.maxStack = max
}

// SetMaxSteps caps the number of instructions per Interpret; 0 means
// unlimited.
func (m *VM) SetMaxSteps(max int64) {
	m.steps = limits.NewBudget(max)
}

// SetLogger enables per-instruction tracing when the logger allows debug.
func (m *VM) SetLogger(log commonlog.Logger) {
	m.log = log
}

// Result is the value left on top of the stack by the last Interpret.
func (m *VM) Result() (value.Value, bool) {
	if len(m.stack) == 0 {
		return value.Nil, false
	}
	return m.stack[len(m.stack)-1], true
}

func (m *VM) StackDepth() int { return len(m.stack) }

// Global returns the value stored in slot i, if that slot was ever defined.
func (m *VM) Global(i int) (value.Value, bool) {
	if i < 0 || i >= len(m.globals) || !m.defined[i] {
		return value.Nil, false
	}
	return m.globals[i], true
}

func (m *VM) GlobalCount() int { return len(m.globals) }

// Steps is the number of instructions dispatched by the last Interpret.
func (m *VM) Steps() int64 { return m.steps.Used() }

// Interpret runs chunk until OpReturn or the first fault. The operand stack
// starts empty on every call; globals persist, and a fault does not undo
// globals already defined.
func (m *VM) Interpret(chunk *code.Chunk) error {
	if chunk == nil {
		return ErrNoChunk
	}
	m.chunk = chunk
	m.ip = 0
	m.stack = m.stack[:0]
	m.steps.Reset()
	return m.run()
}

func (m *VM) run() error {
	ins := m.chunk.Code
	for {
		opPos := m.ip
		if opPos >= len(ins) {
			return m.fault(code.OpReturn, opPos, fmt.Errorf("%w: missing return", ErrTruncated))
		}

		op := code.Opcode(ins[opPos])
		def, ok := code.Lookup(op)
		if !ok {
			return m.fault(op, opPos, fmt.Errorf("%w: %d", ErrUnknownOpcode, byte(op)))
		}

		if err := m.steps.Charge(1); err != nil {
			return m.fault(op, opPos, fmt.Errorf("%w: %w", ErrStepLimit, err))
		}

		operand, err := m.readOperand(def)
		if err != nil {
			return m.fault(op, opPos, err)
		}

		if m.log != nil && m.log.AllowLevel(commonlog.Debug) {
			line, _ := m.chunk.DisassembleAt(opPos)
			m.log.Debugf("%s  [depth=%d]", line, len(m.stack))
		}

		switch op {
		case code.OpConstant, code.OpConstantLong:
			c, ok := m.chunk.Constant(operand)
			if !ok {
				err = fmt.Errorf("%w: %d", ErrConstantOutOfRange, operand)
				break
			}
			err = m.push(c)

		case code.OpNil:
			err = m.push(value.Nil)
		case code.OpTrue:
			err = m.push(value.Bool(true))
		case code.OpFalse:
			err = m.push(value.Bool(false))

		case code.OpPop:
			_, err = m.pop()

		case code.OpAdd, code.OpSub, code.OpMult, code.OpDiv:
			err = m.execBinaryOp(op)

		case code.OpEqual, code.OpGreater, code.OpLess:
			err = m.execComparison(op)

		case code.OpNot:
			var v value.Value
			if v, err = m.pop(); err != nil {
				break
			}
			if v, err = value.Not(v); err != nil {
				break
			}
			err = m.push(v)

		case code.OpDefineGlobal, code.OpDefineGlobalLong:
			var v value.Value
			if v, err = m.pop(); err != nil {
				break
			}
			m.setGlobal(operand, v)

		case code.OpGetGlobal, code.OpGetGlobalLong:
			v, ok := m.Global(operand)
			if !ok {
				err = fmt.Errorf("%w: slot %d", ErrUndefinedGlobal, operand)
				break
			}
			err = m.push(v)

		case code.OpGetLocal, code.OpGetLocalLong:
			if operand >= len(m.stack) {
				err = fmt.Errorf("%w: slot %d, depth %d", ErrLocalOutOfRange, operand, len(m.stack))
				break
			}
			err = m.push(m.stack[operand])

		case code.OpCollapseLocals:
			err = m.collapse(operand)

		case code.OpJump:
			m.ip += operand

		case code.OpJumpIfFalse:
			var v value.Value
			if v, err = m.pop(); err != nil {
				break
			}
			if v.Kind() != value.BoolKind {
				err = fmt.Errorf("%w: condition must be %s, got %s", value.ErrTypeMismatch, value.BoolKind, v.Kind())
				break
			}
			if !v.AsBool() {
				m.ip += operand
			}

		case code.OpReturn:
			return nil

		default:
			err = fmt.Errorf("%w: %s", ErrUnknownOpcode, op)
		}

		if err != nil {
			return m.fault(op, opPos, err)
		}
	}
}

// readOperand consumes the inline operand of def, if any, and advances ip
// past the whole instruction.
func (m *VM) readOperand(def *code.Definition) (int, error) {
	m.ip++
	if len(def.OperandWidths) == 0 {
		return 0, nil
	}

	switch def.OperandWidths[0] {
	case 1:
		b, ok := m.chunk.ByteAt(m.ip)
		if !ok {
			return 0, fmt.Errorf("%w: %s needs 1 operand byte", ErrTruncated, def.Name)
		}
		m.ip++
		return int(b), nil
	case 2:
		v, ok := m.chunk.Uint16At(m.ip)
		if !ok {
			return 0, fmt.Errorf("%w: %s needs 2 operand bytes", ErrTruncated, def.Name)
		}
		m.ip += 2
		return int(v), nil
	}
	return 0, fmt.Errorf("%w: bad operand width for %s", ErrUnknownOpcode, def.Name)
}

func (m *VM) push(v value.Value) error {
	if m.maxStack > 0 && len(m.stack) >= m.maxStack {
		return fmt.Errorf("%w: %w", ErrStackOverflow, limits.MaxStackError{Limit: m.maxStack})
	}
	m.stack = append(m.stack, v)
	return nil
}

func (m *VM) pop() (value.Value, error) {
	if len(m.stack) == 0 {
		return value.Nil, ErrStackUnderflow
	}
	v := m.stack[len(m.stack)-1]
	m.stack = m.stack[:len(m.stack)-1]
	return v, nil
}

// collapse drops the n slots under the top value and keeps the top.
func (m *VM) collapse(n int) error {
	if n+1 > len(m.stack) {
		return fmt.Errorf("%w: collapse %d with depth %d", ErrStackUnderflow, n, len(m.stack))
	}
	top := m.stack[len(m.stack)-1]
	m.stack = m.stack[:len(m.stack)-1-n]
	m.stack = append(m.stack, top)
	return nil
}

func (m *VM) setGlobal(i int, v value.Value) {
	for len(m.globals) <= i {
		m.globals = append(m.globals, value.Nil)
		m.defined = append(m.defined, false)
	}
	m.globals[i] = v
	m.defined[i] = true
}

var arithOps = map[code.Opcode]value.BinaryOp{
	code.OpAdd:  value.OpAdd,
	code.OpSub:  value.OpSub,
	code.OpMult: value.OpMult,
	code.OpDiv:  value.OpDiv,
}

func (m *VM) execBinaryOp(op code.Opcode) error {
	right, err := m.pop()
	if err != nil {
		return err
	}
	left, err := m.pop()
	if err != nil {
		return err
	}
	res, err := value.Arith(arithOps[op], left, right)
	if err != nil {
		return err
	}
	return m.push(res)
}

func (m *VM) execComparison(op code.Opcode) error {
	right, err := m.pop()
	if err != nil {
		return err
	}
	left, err := m.pop()
	if err != nil {
		return err
	}

	var res bool
	switch op {
	case code.OpEqual:
		res = value.Equal(left, right)
	case code.OpGreater:
		res, err = value.Greater(left, right)
	case code.OpLess:
		res, err = value.Less(left, right)
	}
	if err != nil {
		return err
	}
	return m.push(value.Bool(res))
}

func (m *VM) fault(op code.Opcode, ip int, err error) error {
	rerr := &RuntimeError{Err: err, Op: op, IP: ip}
	if pos, ok := m.chunk.PosAt(ip); ok {
		rerr.Pos = pos
		rerr.HasPos = true
	}
	if m.log != nil {
		m.log.Debugf("fault: %s", rerr.Error())
	}
	return rerr
}
