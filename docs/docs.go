// Package docs registers the OpenAPI description served at /swagger.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/process/parse": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["process"],
                "summary": "Parse a document into process graphs",
                "parameters": [
                    {"description": "Document text", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.ParseRequest"}}
                ],
                "responses": {
                    "200": {"description": "Parsed processes", "schema": {"$ref": "#/definitions/handler.Response"}},
                    "400": {"description": "Invalid request", "schema": {"$ref": "#/definitions/handler.ErrorResponseBody"}},
                    "413": {"description": "Document too large", "schema": {"$ref": "#/definitions/handler.ErrorResponseBody"}},
                    "502": {"description": "No process could be extracted", "schema": {"$ref": "#/definitions/handler.ErrorResponseBody"}}
                }
            }
        },
        "/process/ideal-state": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["process"],
                "summary": "Generate an ideal-state vision",
                "parameters": [
                    {"description": "Parsed process", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.IdealStateRequest"}}
                ],
                "responses": {
                    "200": {"description": "Ideal state", "schema": {"$ref": "#/definitions/handler.Response"}},
                    "400": {"description": "Invalid process", "schema": {"$ref": "#/definitions/handler.ErrorResponseBody"}}
                }
            }
        },
        "/process/chat": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["process"],
                "summary": "Document a process through conversation",
                "parameters": [
                    {"description": "Chat turn", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.ChatRequest"}}
                ],
                "responses": {
                    "200": {"description": "Assistant reply", "schema": {"$ref": "#/definitions/handler.Response"}},
                    "400": {"description": "Empty message", "schema": {"$ref": "#/definitions/handler.ErrorResponseBody"}}
                }
            }
        },
        "/process/export": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"],
                "tags": ["process"],
                "summary": "Export parsed processes as a spreadsheet",
                "parameters": [
                    {"description": "Parse batch", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.ExportRequest"}}
                ],
                "responses": {
                    "200": {"description": "Workbook", "schema": {"type": "file"}},
                    "400": {"description": "Invalid batch", "schema": {"$ref": "#/definitions/handler.ErrorResponseBody"}}
                }
            }
        },
        "/runs": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["runs"],
                "summary": "List parse runs",
                "parameters": [
                    {"type": "integer", "default": 0, "description": "Offset", "name": "offset", "in": "query"},
                    {"type": "integer", "default": 20, "description": "Limit", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "Parse runs", "schema": {"$ref": "#/definitions/handler.Response"}},
                    "501": {"description": "Audit log not configured", "schema": {"$ref": "#/definitions/handler.ErrorResponseBody"}}
                }
            }
        },
        "/runs/{id}/result": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["runs"],
                "summary": "Get the archived result of a parse run",
                "parameters": [
                    {"type": "string", "description": "Run ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Archived batch", "schema": {"$ref": "#/definitions/handler.Response"}},
                    "400": {"description": "Invalid run ID", "schema": {"$ref": "#/definitions/handler.ErrorResponseBody"}},
                    "404": {"description": "Run or archived result not found", "schema": {"$ref": "#/definitions/handler.ErrorResponseBody"}},
                    "501": {"description": "Audit log or archive not configured", "schema": {"$ref": "#/definitions/handler.ErrorResponseBody"}}
                }
            }
        },
        "/cache/stats": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["cache"],
                "summary": "Cache statistics for today (UTC)",
                "responses": {
                    "200": {"description": "Cache statistics", "schema": {"$ref": "#/definitions/handler.Response"}},
                    "503": {"description": "Cache unavailable", "schema": {"$ref": "#/definitions/handler.ErrorResponseBody"}}
                }
            }
        },
        "/cache": {
            "delete": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["cache"],
                "summary": "Clear cached results",
                "parameters": [
                    {"type": "string", "description": "Key glob, e.g. parse:*", "name": "pattern", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "Keys removed", "schema": {"$ref": "#/definitions/handler.Response"}},
                    "403": {"description": "Admin role required", "schema": {"$ref": "#/definitions/handler.ErrorResponseBody"}},
                    "503": {"description": "Cache unavailable", "schema": {"$ref": "#/definitions/handler.ErrorResponseBody"}}
                }
            }
        }
    },
    "definitions": {
        "handler.APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"}
            }
        },
        "handler.ErrorResponseBody": {
            "type": "object",
            "properties": {
                "error": {"$ref": "#/definitions/handler.APIError"},
                "success": {"type": "boolean", "example": false}
            }
        },
        "handler.PagMeta": {
            "type": "object",
            "properties": {
                "limit": {"type": "integer"},
                "offset": {"type": "integer"},
                "total": {"type": "integer"}
            }
        },
        "handler.Response": {
            "type": "object",
            "properties": {
                "data": {},
                "meta": {"$ref": "#/definitions/handler.PagMeta"},
                "success": {"type": "boolean", "example": true}
            }
        },
        "handler.ParseRequest": {
            "type": "object",
            "properties": {
                "additionalContext": {"type": "string", "example": "The team is fully remote."},
                "inputType": {"type": "string", "enum": ["document", "voice_transcript", "chat"], "example": "document"},
                "text": {"type": "string", "example": "Employee Onboarding Process\nHR sends the offer letter..."}
            }
        },
        "handler.IdealStateRequest": {
            "type": "object",
            "properties": {
                "process": {"type": "object"}
            }
        },
        "handler.ChatRequest": {
            "type": "object",
            "properties": {
                "history": {
                    "type": "array",
                    "items": {
                        "type": "object",
                        "properties": {
                            "role": {"type": "string", "example": "user"},
                            "content": {"type": "string"}
                        }
                    }
                },
                "message": {"type": "string", "example": "Who approves the requisition?"}
            }
        },
        "handler.ExportRequest": {
            "type": "object",
            "properties": {
                "batch": {"type": "object"},
                "name": {"type": "string", "example": "Q3 process review"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "FlowForge API",
	Description:      "Turns free-text workflow descriptions into structured process graphs.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
