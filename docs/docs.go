// Package docs holds the generated OpenAPI definition. Regenerate with
// `swag init -g cmd/llmbridged/docs.go -o docs`.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/generate": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/x-ndjson"],
                "summary": "Generate a completion for a prompt",
                "parameters": [
                    {
                        "description": "generation request",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/types.GenerateRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "NDJSON token lines followed by a final line", "schema": {"$ref": "#/definitions/types.GenerateFinal"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/models": {
            "get": {
                "produces": ["application/json"],
                "summary": "List discovered models",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.ModelsResponse"}}
                }
            }
        },
        "/status": {
            "get": {
                "produces": ["application/json"],
                "summary": "Bridge status",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.StatusResponse"}}
                }
            }
        }
    },
    "definitions": {
        "types.GenerateRequest": {
            "type": "object",
            "properties": {
                "model": {"type": "string", "example": "tinyllama-q4"},
                "prompt": {"type": "string", "example": "Write a haiku about the ocean."},
                "stream": {"type": "boolean", "example": true},
                "max_tokens": {"type": "integer", "example": 128},
                "temperature": {"type": "number", "example": 0.4},
                "top_p": {"type": "number", "example": 0.9},
                "top_k": {"type": "integer", "example": 40},
                "repeat_penalty": {"type": "number", "example": 1.1},
                "seed": {"type": "integer", "example": 42}
            }
        },
        "types.GenerateFinal": {
            "type": "object",
            "properties": {
                "done": {"type": "boolean"},
                "content": {"type": "string"},
                "finish_reason": {"type": "string", "example": "eos"},
                "tokens_generated": {"type": "integer", "example": 42},
                "generation_id": {"type": "string"}
            }
        },
        "types.Model": {
            "type": "object",
            "properties": {
                "id": {"type": "string", "example": "tinyllama-q4"},
                "name": {"type": "string", "example": "TinyLlama (Q4)"},
                "path": {"type": "string"},
                "quant": {"type": "string", "example": "Q4_K_M"},
                "family": {"type": "string", "example": "llama"}
            }
        },
        "types.ModelsResponse": {
            "type": "object",
            "properties": {
                "models": {"type": "array", "items": {"$ref": "#/definitions/types.Model"}}
            }
        },
        "types.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string", "example": "invalid JSON body"},
                "code": {"type": "integer", "example": 400}
            }
        },
        "types.StatusResponse": {
            "type": "object",
            "properties": {
                "initialized": {"type": "boolean"},
                "model_path": {"type": "string"},
                "context_len": {"type": "integer", "example": 2048},
                "threads": {"type": "integer", "example": 4},
                "gpu_layers": {"type": "integer", "example": 0},
                "busy": {"type": "boolean"},
                "generations_total": {"type": "integer"},
                "tokens_total": {"type": "integer"},
                "last_error": {"type": "string"},
                "uptime_seconds": {"type": "integer"},
                "server_time_unix": {"type": "integer"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "llmbridge API",
	Description:      "HTTP API for local LLM text generation.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
