package trap

// TotalInterrupts mirrors original_source/src/idt/idt.c's
// CONIFEROS_TOTAL_INTERRUPTS: the generic vector table is sized for the
// full IDT, not just the isr80h command space.
const TotalInterrupts = 512

// IRQTimer is the vector the PIC remaps IRQ0 (the PIT tick) to, per
// idt_init's layout.
const IRQTimer = 0x20

// InterruptHandler_f is a registered generic-vector handler, mirroring
// INTERRUPT_HANDLER in idt.h: it runs with no task context, the way a
// hardware IRQ does.
type InterruptHandler_f func(k *Kernel_t)

// irqState (handlers and TimerTicks) is separate from Kernel_t.commands: the
// generic vector table in the source (interrupt_handlers) is process-
// independent, unlike isr80h_commands which runs against the
// interrupting task's saved frame.
type irqState struct {
	handlers   [TotalInterrupts]InterruptHandler_f
	TimerTicks uint64
}

// RegisterInterruptHandler installs fn for vector, mirroring
// idt_register_interrupt_handler's bounds check.
func (k *Kernel_t) RegisterInterruptHandler(vector int, fn InterruptHandler_f) {
	if vector < 0 || vector >= TotalInterrupts {
		panic("trap: interrupt vector out of range")
	}
	k.irq.handlers[vector] = fn
}

// DispatchInterrupt runs the handler registered for vector, mirroring
// interrupt_handler: unlike Dispatch (isr80h), this never touches a
// task's saved frame, since hardware interrupts aren't syscalls. The
// PIC "acknowledgment" (outb(0x20, 0x20)) that original_source sends
// unconditionally has no effect in this simulation; TimerTicks is
// this dispatcher's only observable side effect for IRQTimer.
func (k *Kernel_t) DispatchInterrupt(vector int) {
	if vector < 0 || vector >= TotalInterrupts {
		return
	}
	if h := k.irq.handlers[vector]; h != nil {
		h(k)
	}
}

// RegisterTimer installs the IRQ0 tick counter this kernel carries even
// though it drives no preemption (spec.md §5 is strictly cooperative):
// TimerTicks is exposed for D_STAT-style diagnostics only.
func (k *Kernel_t) RegisterTimer() {
	k.RegisterInterruptHandler(IRQTimer, func(k *Kernel_t) {
		k.irq.TimerTicks++
	})
}
