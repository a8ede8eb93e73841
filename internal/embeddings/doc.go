// Package embeddings provides text embedding generation for the intent
// matcher via multiple providers.
//
// Supports FastEmbed (local ONNX models, CGO builds) and TEI (external HTTP
// service) providers. A factory selects the provider at runtime. All
// providers produce fixed-dimension float32 vectors suitable for cosine
// similarity search.
package embeddings
