// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package files

import (
	"fmt"
	"io"
	"os"
	"sync"
)

var stdin = &onceReader{reader: os.Stdin}

// onceReader hands its contents to the first caller. Both the description
// and define files may be given as "-".
type onceReader struct {
	mu     sync.Mutex
	reader io.Reader
	read   bool
}

func (r *onceReader) ReadAll() ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.read {
		return nil, fmt.Errorf("Standard input has already been read, was '-' given more than once?")
	}
	r.read = true
	return io.ReadAll(r.reader)
}

// ReadStdin reads standard input. Only the first call succeeds.
func ReadStdin() ([]byte, error) { return stdin.ReadAll() }
