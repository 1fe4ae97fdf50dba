// Package docs StoryReel API 文档，由 swag init 生成后精简
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
        "/auth/token": {
            "post": {
                "tags": ["auth"],
                "summary": "Issue an access token",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/auth.TokenRequest"}}],
                "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}
            }
        },
        "/auth/refresh": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["auth"],
                "summary": "Refresh an access token",
                "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}
            }
        },
        "/videos": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["videos"],
                "summary": "List generation tasks",
                "parameters": [
                    {"type": "string", "name": "status", "in": "query"},
                    {"type": "integer", "name": "limit", "in": "query"},
                    {"type": "integer", "name": "offset", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["videos"],
                "summary": "Create a generation task",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/video.CreateVideoRequest"}}],
                "responses": {"202": {"description": "Accepted"}, "400": {"description": "Bad Request"}}
            }
        },
        "/videos/{task_id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["videos"],
                "summary": "Get a task with its scene images",
                "parameters": [{"type": "string", "name": "task_id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            }
        },
        "/videos/{task_id}/ws": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["videos"],
                "summary": "Stream task and scene events over websocket",
                "parameters": [{"type": "string", "name": "task_id", "in": "path", "required": true}],
                "responses": {"101": {"description": "Switching Protocols"}, "404": {"description": "Not Found"}}
            }
        },
        "/images/{image_id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["images"],
                "summary": "Get a scene image",
                "parameters": [{"type": "string", "name": "image_id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["images"],
                "summary": "Delete a scene image",
                "parameters": [{"type": "string", "name": "image_id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            }
        },
        "/images/{image_id}/regenerate": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["images"],
                "summary": "Regenerate a scene image",
                "parameters": [{"type": "string", "name": "image_id", "in": "path", "required": true}],
                "responses": {"202": {"description": "Accepted"}, "409": {"description": "Conflict"}}
            }
        }
    },
    "definitions": {
        "auth.TokenRequest": {
            "type": "object",
            "required": ["username", "password"],
            "properties": {
                "username": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "video.CreateVideoRequest": {
            "type": "object",
            "required": ["story_topic", "art_style", "duration"],
            "properties": {
                "story_topic": {"type": "string"},
                "art_style": {"type": "string"},
                "duration": {"type": "string", "enum": ["short", "long"]},
                "language": {"type": "string"},
                "voice": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "StoryReel API",
	Description:      "Turns a story topic into a narrated short video.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
