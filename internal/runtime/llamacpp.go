//go:build llamacpp

package runtime

// cgo link directives for the in-process llama.cpp binding.
// - rpath of $ORIGIN so the runtime loader finds libllama.so next to the
//   built Go binary (./bin).
// - -L${SRCDIR}/../../bin so the linker finds libllama.so at link time.
// - No environment variables are required.

/*
#cgo CFLAGS: -I${SRCDIR}/../../bin/include
#cgo LDFLAGS: -Wl,-rpath,'$ORIGIN' -L${SRCDIR}/../../bin -lllama -lm -lstdc++
#include <stdlib.h>
#include "llama.h"
*/
import "C"

import (
	"fmt"
	"sync"
	"unsafe"
)

// Available reports whether a native model runtime is compiled in.
func Available() bool { return true }

var backendOnce sync.Once

// Open returns the llama.cpp-backed runtime, initializing the backend once
// per process.
func Open() (Runtime, error) {
	backendOnce.Do(func() {
		C.llama_backend_init()
	})
	return llamaRuntime{}, nil
}

type llamaRuntime struct{}

func (llamaRuntime) LoadModel(path string, opts ModelOptions) (Model, error) {
	cPath := C.CString(path)
	defer C.free(unsafe.Pointer(cPath))

	mparams := C.llama_model_default_params()
	mparams.n_gpu_layers = C.int32_t(opts.GPULayers)
	mparams.use_mmap = C.bool(opts.UseMMap)
	mparams.use_mlock = C.bool(false)

	m := C.llama_load_model_from_file(cPath, mparams)
	if m == nil {
		return nil, &LoadError{Path: path, Reason: "llama_load_model_from_file returned null"}
	}
	return &llamaModel{c: m}, nil
}

type llamaModel struct {
	c *C.struct_llama_model
}

func (m *llamaModel) NewContext(opts ContextOptions) (Context, error) {
	cparams := C.llama_context_default_params()
	cparams.n_ctx = C.uint32_t(opts.ContextLen)
	cparams.n_batch = C.uint32_t(opts.BatchSize)
	cparams.n_threads = C.int32_t(opts.Threads)
	cparams.n_threads_batch = C.int32_t(opts.Threads)
	cparams.seed = C.uint32_t(opts.Seed)

	ctx := C.llama_new_context_with_model(m.c, cparams)
	if ctx == nil {
		return nil, &ContextError{Reason: "llama_new_context_with_model returned null"}
	}
	return &llamaContext{c: ctx, model: m, contextLen: opts.ContextLen}, nil
}

func (m *llamaModel) Tokenize(text string, addSpecial bool) ([]int, error) {
	if text == "" && !addSpecial {
		return nil, nil
	}
	cText := C.CString(text)
	defer C.free(unsafe.Pointer(cText))

	// Worst case one token per byte, plus room for control tokens.
	maxTokens := len(text) + 8
	buf := make([]C.llama_token, maxTokens)
	n := C.llama_tokenize(m.c, cText, C.int32_t(len(text)),
		&buf[0], C.int32_t(maxTokens), C.bool(addSpecial), C.bool(true))
	if n < 0 {
		return nil, fmt.Errorf("tokenize: need %d token slots", -n)
	}
	out := make([]int, int(n))
	for i := range out {
		out[i] = int(buf[i])
	}
	return out, nil
}

func (m *llamaModel) TokenText(token int) string {
	var buf [512]C.char
	n := C.llama_token_to_piece(m.c, C.llama_token(token), &buf[0], C.int32_t(len(buf)), C.bool(false))
	if n <= 0 {
		return ""
	}
	return C.GoStringN(&buf[0], n)
}

func (m *llamaModel) IsEOG(token int) bool {
	return bool(C.llama_token_is_eog(m.c, C.llama_token(token)))
}

func (m *llamaModel) VocabSize() int {
	return int(C.llama_n_vocab(m.c))
}

func (m *llamaModel) Free() {
	if m.c != nil {
		C.llama_free_model(m.c)
		m.c = nil
	}
}

type llamaContext struct {
	c          *C.struct_llama_context
	model      *llamaModel
	contextLen int
}

func (c *llamaContext) Decode(tokens []int) error {
	if len(tokens) == 0 {
		return nil
	}
	buf := make([]C.llama_token, len(tokens))
	for i, t := range tokens {
		buf[i] = C.llama_token(t)
	}
	batch := C.llama_batch_get_one(&buf[0], C.int32_t(len(buf)))
	if rc := C.llama_decode(c.c, batch); rc != 0 {
		return &DecodeError{Tokens: len(tokens), Code: int(rc)}
	}
	return nil
}

func (c *llamaContext) Logits() []float32 {
	p := C.llama_get_logits(c.c)
	if p == nil {
		return nil
	}
	n := c.model.VocabSize()
	return unsafe.Slice((*float32)(unsafe.Pointer(p)), n)
}

func (c *llamaContext) ContextLen() int { return c.contextLen }

func (c *llamaContext) Free() {
	if c.c != nil {
		C.llama_free(c.c)
		c.c = nil
	}
}
