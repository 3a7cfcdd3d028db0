package emulator

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
)

// Base opcodes (instruction bits 6:0).
const (
	opLoad    = 0x03
	opMiscMem = 0x0F
	opImm     = 0x13
	opAUIPC   = 0x17
	opStore   = 0x23
	opReg     = 0x33
	opLUI     = 0x37
	opBranch  = 0x63
	opJALR    = 0x67
	opJAL     = 0x6F
	opSystem  = 0x73
)

// ErrHalt is returned by Step when the CPU executes ECALL or EBREAK.
var ErrHalt = errors.New("halted by system instruction")

// IllegalInstructionError reports an encoding the CPU does not implement.
type IllegalInstructionError struct {
	PC   uint32
	Inst uint32
}

func (e *IllegalInstructionError) Error() string {
	return fmt.Sprintf("illegal instruction %#010x at pc %#010x", e.Inst, e.PC)
}

// CPU is a single RV32I hart. x0 is hardwired to zero.
type CPU struct {
	Regs [32]uint32
	PC   uint32

	mem *Memory
	// Logger, when set, receives one debug line per executed instruction.
	Logger *log.Logger
}

func NewCPU(mem *Memory) *CPU {
	return &CPU{mem: mem}
}

func (c *CPU) fetch() uint32 {
	return c.mem.ReadWord(c.PC)
}

// Step fetches the instruction at PC, advances PC by 4 and executes it.
func (c *CPU) Step() error {
	pc := c.PC
	inst := c.fetch()
	c.PC += 4

	err := c.execute(pc, inst)
	c.Regs[0] = 0
	return err
}

func (c *CPU) trace(pc uint32, name string, kv ...any) {
	if c.Logger == nil {
		return
	}
	c.Logger.Debug(name, append([]any{"pc", fmt.Sprintf("%#08x", pc)}, kv...)...)
}

func (c *CPU) execute(pc, inst uint32) error {
	rd := (inst >> 7) & 0x1F
	funct3 := (inst >> 12) & 0x07
	rs1 := (inst >> 15) & 0x1F
	rs2 := (inst >> 20) & 0x1F
	funct7 := inst >> 25
	illegal := &IllegalInstructionError{PC: pc, Inst: inst}

	switch inst & 0x7F {
	case opLUI:
		c.trace(pc, "LUI", "rd", rd)
		c.Regs[rd] = immU(inst)

	case opAUIPC:
		c.trace(pc, "AUIPC", "rd", rd)
		c.Regs[rd] = pc + immU(inst)

	case opJAL:
		target := pc + uint32(immJ(inst))
		c.trace(pc, "JAL", "rd", rd, "target", fmt.Sprintf("%#x", target))
		c.Regs[rd] = pc + 4
		c.PC = target

	case opJALR:
		if funct3 != 0 {
			return illegal
		}
		target := (c.Regs[rs1] + uint32(immI(inst))) &^ 1
		c.trace(pc, "JALR", "rd", rd, "rs1", rs1, "target", fmt.Sprintf("%#x", target))
		c.Regs[rd] = pc + 4
		c.PC = target

	case opBranch:
		a, b := c.Regs[rs1], c.Regs[rs2]
		var taken bool
		switch funct3 {
		case 0x0:
			taken = a == b
		case 0x1:
			taken = a != b
		case 0x4:
			taken = int32(a) < int32(b)
		case 0x5:
			taken = int32(a) >= int32(b)
		case 0x6:
			taken = a < b
		case 0x7:
			taken = a >= b
		default:
			return illegal
		}
		c.trace(pc, "BRANCH", "funct3", funct3, "rs1", rs1, "rs2", rs2, "taken", taken)
		if taken {
			c.PC = pc + uint32(immB(inst))
		}

	case opLoad:
		addr := c.Regs[rs1] + uint32(immI(inst))
		var v uint32
		switch funct3 {
		case 0x0: // LB
			v = uint32(int32(int8(c.mem.Read(addr))))
		case 0x1: // LH
			v = uint32(int32(int16(c.readHalf(addr))))
		case 0x2: // LW
			v = c.mem.ReadWord(addr)
		case 0x4: // LBU
			v = uint32(c.mem.Read(addr))
		case 0x5: // LHU
			v = uint32(c.readHalf(addr))
		default:
			return illegal
		}
		c.trace(pc, "LOAD", "rd", rd, "addr", fmt.Sprintf("%#x", addr))
		c.Regs[rd] = v

	case opStore:
		addr := c.Regs[rs1] + uint32(immS(inst))
		v := c.Regs[rs2]
		switch funct3 {
		case 0x0: // SB
			c.mem.Write(addr, byte(v))
		case 0x1: // SH
			c.mem.Write(addr, byte(v))
			c.mem.Write(addr+1, byte(v>>8))
		case 0x2: // SW
			c.mem.WriteWord(addr, v)
		default:
			return illegal
		}
		c.trace(pc, "STORE", "rs2", rs2, "addr", fmt.Sprintf("%#x", addr))

	case opImm:
		imm := immI(inst)
		a := c.Regs[rs1]
		shamt := rs2
		var v uint32
		switch funct3 {
		case 0x0: // ADDI
			c.trace(pc, "ADDI", "rd", rd, "rs1", rs1, "imm", imm)
			v = a + uint32(imm)
		case 0x2: // SLTI
			v = b2u(int32(a) < imm)
		case 0x3: // SLTIU
			v = b2u(a < uint32(imm))
		case 0x4: // XORI
			v = a ^ uint32(imm)
		case 0x6: // ORI
			v = a | uint32(imm)
		case 0x7: // ANDI
			v = a & uint32(imm)
		case 0x1: // SLLI
			if funct7 != 0 {
				return illegal
			}
			v = a << shamt
		case 0x5: // SRLI, SRAI
			switch funct7 {
			case 0x00:
				v = a >> shamt
			case 0x20:
				v = uint32(int32(a) >> shamt)
			default:
				return illegal
			}
		}
		if funct3 != 0 {
			c.trace(pc, "OP-IMM", "funct3", funct3, "rd", rd, "rs1", rs1)
		}
		c.Regs[rd] = v

	case opReg:
		a, b := c.Regs[rs1], c.Regs[rs2]
		var v uint32
		switch {
		case funct7 == 0x00 && funct3 == 0x0:
			v = a + b
		case funct7 == 0x20 && funct3 == 0x0:
			v = a - b
		case funct7 == 0x00 && funct3 == 0x1:
			v = a << (b & 0x1F)
		case funct7 == 0x00 && funct3 == 0x2:
			v = b2u(int32(a) < int32(b))
		case funct7 == 0x00 && funct3 == 0x3:
			v = b2u(a < b)
		case funct7 == 0x00 && funct3 == 0x4:
			v = a ^ b
		case funct7 == 0x00 && funct3 == 0x5:
			v = a >> (b & 0x1F)
		case funct7 == 0x20 && funct3 == 0x5:
			v = uint32(int32(a) >> (b & 0x1F))
		case funct7 == 0x00 && funct3 == 0x6:
			v = a | b
		case funct7 == 0x00 && funct3 == 0x7:
			v = a & b
		default:
			return illegal
		}
		c.trace(pc, "OP", "funct3", funct3, "funct7", funct7, "rd", rd)
		c.Regs[rd] = v

	case opMiscMem:
		c.trace(pc, "FENCE")

	case opSystem:
		if inst == 0x00000073 || inst == 0x00100073 {
			c.trace(pc, "SYSTEM")
			return ErrHalt
		}
		return illegal

	default:
		return illegal
	}
	return nil
}

func (c *CPU) readHalf(addr uint32) uint16 {
	return uint16(c.mem.Read(addr)) | uint16(c.mem.Read(addr+1))<<8
}

func b2u(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

func immI(inst uint32) int32 {
	return int32(inst) >> 20
}

func immS(inst uint32) int32 {
	return (int32(inst)>>25)<<5 | int32((inst>>7)&0x1F)
}

func immB(inst uint32) int32 {
	return (int32(inst)>>31)<<12 |
		int32((inst>>7)&0x1)<<11 |
		int32((inst>>25)&0x3F)<<5 |
		int32((inst>>8)&0xF)<<1
}

func immU(inst uint32) uint32 {
	return inst &^ 0xFFF
}

func immJ(inst uint32) int32 {
	return (int32(inst)>>31)<<20 |
		int32((inst>>12)&0xFF)<<12 |
		int32((inst>>20)&0x1)<<11 |
		int32((inst>>21)&0x3FF)<<1
}
