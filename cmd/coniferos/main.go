// Command coniferos boots the simulated kernel against a FAT16 disk
// image and runs its first process interactively, forwarding host
// terminal keystrokes to the simulated keyboard device the way
// smoynes-elsie's internal/tty.Console forwards host input to its
// LC-3 keyboard register: raw-mode stdin and one goroutine copying bytes
// into the process's ring buffer. The simulated console's contents are
// not printed to the host terminal.
package main

import (
	"flag"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
	"golang.org/x/term"

	"github.com/RyanStan/ConiferOS/internal/kernel"
	"github.com/RyanStan/ConiferOS/internal/klog"
)

func main() {
	diskPath := flag.String("disk", "", "path to a raw FAT16 disk image")
	initPath := flag.String("init", "0:/shell.bin", "path (drive:/file) of the first process to load")
	flag.Parse()

	if *diskPath == "" {
		fmt.Fprintln(os.Stderr, "coniferos: -disk is required")
		os.Exit(2)
	}

	img, err := os.ReadFile(*diskPath)
	if err != nil {
		klog.Default().Error("reading disk image", "path", *diskPath, "err", err)
		os.Exit(1)
	}

	k, kerr := kernel.Boot(img, *initPath, flag.Args())
	if kerr != 0 {
		klog.Default().Error("boot failed", "err", kerr)
		os.Exit(1)
	}
	klog.Default().Info("boot complete", "init", *initPath)

	task := k.Tasks.Head()
	if task == nil {
		klog.Default().Warn("no task scheduled after boot, exiting")
		return
	}

	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		if ws, err := unix.IoctlGetWinsize(fd, unix.TIOCGWINSZ); err == nil {
			klog.Default().Debug("host terminal size", "cols", ws.Col, "rows", ws.Row)
		}
		state, err := term.MakeRaw(fd)
		if err != nil {
			klog.Default().Error("putting terminal into raw mode", "err", err)
			os.Exit(1)
		}
		defer term.Restore(fd, state)
		go forwardKeystrokes(os.Stdin, task.Process.Keyboard)
	}

	runLoop(k)
}

// forwardKeystrokes copies raw bytes from the host terminal into the
// process's keyboard ring buffer. The host terminal already hands back
// decoded bytes (not PS/2 set-1 scancodes), so this pushes straight
// onto the buffer rather than through keyboard.Decode, which exists for
// feeding a recorded scancode stream instead.
func forwardKeystrokes(in *os.File, kbd interface{ Push(byte) }) {
	buf := make([]byte, 1)
	for {
		n, err := in.Read(buf)
		if err != nil {
			return
		}
		if n > 0 {
			kbd.Push(buf[0])
		}
	}
}

// runLoop drives the head task with int 0x80-equivalent dispatches
// (spec.md §2's steady state: trap in, handle, iret, repeat). Since
// there's no real CPU, the "trap" here is read directly from the task's
// last saved frame. The loop goes on only while a dispatch changes the
// head task (e.g. syscall 7, exit, removes it from the run list); it
// returns when the same task is still at the head after a dispatch or
// when no task remains.
func runLoop(k *kernel.Kernel_t) {
	for {
		task := k.Tasks.Head()
		if task == nil {
			klog.Default().Info("no tasks remaining, shutting down")
			return
		}
		frame := task.Frame
		out, ok := k.RunOnce(frame)
		if !ok {
			return
		}
		_ = out
		if k.Tasks.Head() == task {
			// A real dispatcher loop would decode the next trap from
			// the process's own instruction stream; this simulation
			// has no CPU to execute between traps, so a single
			// process can only make one syscall per RunOnce before
			// this harness needs new input to drive the next one.
			klog.Default().Debug("task still runnable, awaiting next trap", "pid", task.Process.PID)
			return
		}
	}
}
