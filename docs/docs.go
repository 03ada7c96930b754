// Package docs registers the swagger document served at /swagger/*any.
// Regenerate with `swag init -g cmd/server/main.go`.
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
        "/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Log in",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "login", "required": true, "schema": {"$ref": "#/definitions/models.LoginRequest"}}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "401": {"description": "Unauthorized"}}
            }
        },
        "/refresh": {
            "post": {"tags": ["Auth"], "summary": "Rotate the refresh token", "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}}
        },
        "/password-reset": {
            "post": {"tags": ["Auth"], "summary": "Request a password reset", "responses": {"200": {"description": "OK"}}}
        },
        "/password-reset/confirm": {
            "post": {"tags": ["Auth"], "summary": "Set a new password with a reset token", "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}}
        },
        "/chat/{group}": {
            "get": {
                "tags": ["Chat"],
                "summary": "Chat room history",
                "parameters": [{"in": "path", "name": "group", "type": "string", "required": true}],
                "responses": {"200": {"description": "OK"}, "503": {"description": "Service Unavailable"}}
            }
        },
        "/ws/chat/{group}": {
            "get": {
                "tags": ["Chat"],
                "summary": "Chat websocket",
                "parameters": [
                    {"in": "path", "name": "group", "type": "string", "required": true},
                    {"in": "query", "name": "token", "type": "string"}
                ],
                "responses": {"101": {"description": "Switching Protocols"}, "503": {"description": "Service Unavailable"}}
            }
        },
        "/users": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Users"],
                "summary": "List users",
                "parameters": [
                    {"in": "query", "name": "page", "type": "integer"},
                    {"in": "query", "name": "per-page", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["Users"],
                "summary": "Create a user and email the credentials",
                "parameters": [{"in": "body", "name": "user", "required": true, "schema": {"$ref": "#/definitions/models.CreateUserRequest"}}],
                "responses": {"201": {"description": "Created"}, "409": {"description": "Conflict"}}
            }
        },
        "/dashboard": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Users"],
                "summary": "Dashboard counters",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/models.DashboardStats"}}}
            }
        },
        "/students": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Students"],
                "summary": "List students",
                "parameters": [
                    {"in": "query", "name": "page", "type": "integer"},
                    {"in": "query", "name": "per-page", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["Students"],
                "summary": "Create a student",
                "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}}
            }
        },
        "/students/{id}/image": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["Students"],
                "summary": "Upload a student picture",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"in": "path", "name": "id", "type": "integer", "required": true},
                    {"in": "formData", "name": "image", "type": "file", "required": true}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}
            }
        },
        "/tasks/welcome-email": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["Tasks"],
                "summary": "Queue the welcome email task",
                "responses": {"202": {"description": "Accepted"}}
            }
        }
    },
    "definitions": {
        "models.LoginRequest": {
            "type": "object",
            "required": ["password", "username"],
            "properties": {"username": {"type": "string"}, "password": {"type": "string"}}
        },
        "models.CreateUserRequest": {
            "type": "object",
            "required": ["email", "role_id", "username"],
            "properties": {
                "username": {"type": "string"},
                "first_name": {"type": "string"},
                "last_name": {"type": "string"},
                "email": {"type": "string"},
                "password": {"type": "string"},
                "role_id": {"type": "integer"},
                "is_active": {"type": "boolean"}
            }
        },
        "models.DashboardStats": {
            "type": "object",
            "properties": {
                "active_admin_users": {"type": "integer"},
                "inactive_admin_users": {"type": "integer"},
                "active_staff_users": {"type": "integer"},
                "inactive_staff_users": {"type": "integer"},
                "active_students": {"type": "integer"}
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
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "schoolhub API",
	Description:      "Student management with group chat.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
