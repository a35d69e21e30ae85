//go:build !nogpu

package main

// Registers the compute accelerator.
import _ "github.com/gogpu/demosaic/gpu"
