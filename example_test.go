package wasmos

import (
	"context"
	"fmt"
	"log"

	"github.com/r00ster91/wasmos/internal/wasm"
)

// This is an example of how to run a guest and print what it wrote to stdout.
func Example() {
	// Choose the context to use for the run.
	ctx := context.Background()

	// Create a new Runtime, whose FileTable collects the output of guests.
	r := NewRuntime()

	// Decode a guest which writes "hello" to fd 1, then calls proc_exit(3).
	compiled, err := r.Compile(guest([]byte("hello\n"), write(1, 6), exit(3), op(wasm.OpcodeEnd)))
	if err != nil {
		log.Panicln(err)
	}

	status, err := r.Run(ctx, compiled)
	if err != nil {
		log.Panicln(err)
	}

	fmt.Printf("%s", r.FileTable().Bytes(1))
	fmt.Println(status)

	// Output:
	// hello
	// proc_exit(3)
}
