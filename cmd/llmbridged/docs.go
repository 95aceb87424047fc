package main

// General API documentation for swaggo. Run `swag init -g cmd/llmbridged/docs.go -o docs`.
//
// @title           llmbridge API
// @version         1.0
// @description     HTTP API for local LLM text generation.
//
// @contact.name   llmbridge maintainers
// @contact.url    https://github.com/your-org/llmbridge
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
