// Package swagger registers the generated-style OpenAPI document for the
// REST surface. The realtime socket.io events are documented in SPEC_FULL.md
// instead; swagger only covers session creation/lookup and health.
package swagger

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
        "/api/sessions": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["sessions"],
                "summary": "Creates a new photo-reveal session",
                "parameters": [
                    {
                        "description": "Session name (max 50 chars)",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "type": "object",
                            "properties": {"name": {"type": "string"}}
                        }
                    }
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Invalid name"},
                    "500": {"description": "Internal server error"}
                }
            }
        },
        "/api/sessions/{code}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["sessions"],
                "summary": "Looks a session up by its code",
                "parameters": [
                    {
                        "type": "string",
                        "description": "6-character session code",
                        "name": "code",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Invalid session code"},
                    "404": {"description": "Session not found"},
                    "500": {"description": "Internal server error"}
                }
            }
        },
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"},
                    "500": {"description": "Database unreachable"}
                }
            }
        }
    }
}`

var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "PhotoReveal API",
	Description:      "REST surface of the photo-reveal session coordination server",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
