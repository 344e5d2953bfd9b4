package trap

import "testing"

func TestRegisterTimerIncrementsTicks(t *testing.T) {
	k, _ := newTestKernel(t)
	k.RegisterTimer()
	k.DispatchInterrupt(IRQTimer)
	k.DispatchInterrupt(IRQTimer)
	if k.irq.TimerTicks != 2 {
		t.Fatalf("expected 2 ticks, got %d", k.irq.TimerTicks)
	}
}

func TestDispatchInterruptIgnoresUnregisteredVector(t *testing.T) {
	k, _ := newTestKernel(t)
	k.DispatchInterrupt(5) // no panic, no-op
}

func TestRegisterInterruptHandlerRejectsOutOfRange(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for out-of-range vector")
		}
	}()
	k, _ := newTestKernel(t)
	k.RegisterInterruptHandler(TotalInterrupts+1, func(*Kernel_t) {})
}
