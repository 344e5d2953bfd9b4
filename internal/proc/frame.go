package proc

// Frame_t is the saved register state of an interrupted or trapping
// task. Field order is taken verbatim from
// original_source/src/task/task.h's struct registers: this is the order
// the common ISR stub pushes registers in, and GetStackItem and Save
// both depend on it.
type Frame_t struct {
	Edi uint32
	Esi uint32
	Ebp uint32
	Ebx uint32
	Edx uint32
	Ecx uint32
	Eax uint32

	Eip    uint32
	Cs     uint32
	Eflags uint32
	Esp    uint32
	Ss     uint32
}
