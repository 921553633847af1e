// Package local runs a sentence-transformers embedding model in-process.
//
// Model files are read from a subdirectory of the configured model directory
// that contains tokenizer.json, for example models/all-MiniLM-L6-v2. The pure
// Go backend is used by default; build with -tags ORT to use ONNX Runtime,
// whose shared library is located through ORT_LIB_DIR or a lib/ directory next
// to the executable.
package local
