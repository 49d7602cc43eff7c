// Package docs registers the OpenAPI document served at /swagger. It mirrors
// the swag annotations on the handlers; regenerate with
// `swag init -g cmd/server/main.go -o internal/docs` after changing them.
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
        "/chat": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "With an Idempotency-Key header, a retry within the TTL returns the stored reply and sets Idempotency-Replayed: true.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Chat"],
                "summary": "Send a message to the food assistant",
                "operationId": "chat",
                "parameters": [
                    {"type": "string", "example": "7a8d9f4c-1b2a-4c3d-8e9f-0123456789ab", "description": "Key for safe retries", "name": "Idempotency-Key", "in": "header"},
                    {"description": "Message", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.ChatRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.ChatReply"}},
                    "400": {"description": "Missing or oversized message", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/chat/history": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["History"],
                "summary": "Chat history across all sessions",
                "operationId": "getHistory",
                "parameters": [
                    {"maximum": 500, "minimum": 1, "type": "integer", "default": 50, "description": "Max exchanges", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.HistoryResponse"}},
                    "304": {"description": "Not modified"},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["History"],
                "summary": "Delete every exchange of the caller",
                "operationId": "clearHistory",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.ClearResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/chat/search": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["History"],
                "summary": "Case-insensitive search over recent exchanges",
                "operationId": "searchHistory",
                "parameters": [
                    {"description": "Query", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.SearchRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.SearchResponse"}},
                    "400": {"description": "Missing query", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/chat/summary": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["History"],
                "summary": "Summary of recent conversation",
                "operationId": "chatSummary",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.SummaryResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/health": {
            "get": {
                "description": "Always 200; status is \"degraded\" when the store cannot be reached.",
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Liveness and store check",
                "operationId": "health",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.HealthResponse"}}
                }
            }
        },
        "/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Auth"],
                "summary": "Exchange credentials for a token",
                "operationId": "login",
                "parameters": [
                    {"description": "Credentials", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.LoginResponse"}},
                    "400": {"description": "Missing fields", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/preferences": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Preferences"],
                "summary": "Current food preferences",
                "operationId": "getPreferences",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.PreferencesResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            },
            "put": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Preferences"],
                "summary": "Replace food preferences",
                "operationId": "updatePreferences",
                "parameters": [
                    {"description": "Preferences by category", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.UpdatePreferencesRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.UpdatePreferencesResponse"}},
                    "400": {"description": "Missing or invalid preferences", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/profile": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Auth"],
                "summary": "Current user's profile",
                "operationId": "profile",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.ProfileResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "404": {"description": "User not found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/register": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Auth"],
                "summary": "Create an account",
                "operationId": "register",
                "parameters": [
                    {"description": "Account details", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.RegisterRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handlers.RegisterResponse"}},
                    "400": {"description": "Missing fields or duplicate email", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/sessions": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Sessions"],
                "summary": "List chat sessions",
                "operationId": "listSessions",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.SessionsResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Sessions"],
                "summary": "Start a named session",
                "operationId": "createSession",
                "parameters": [
                    {"description": "Session name", "name": "body", "in": "body", "schema": {"$ref": "#/definitions/handlers.CreateSessionRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handlers.CreateSessionResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/sessions/{id}": {
            "delete": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Sessions"],
                "summary": "Delete a session and its exchanges",
                "operationId": "deleteSession",
                "parameters": [
                    {"type": "string", "description": "Session ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.ClearResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/sessions/{id}/history": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Sessions"],
                "summary": "Chat history of one session",
                "operationId": "sessionHistory",
                "parameters": [
                    {"type": "string", "description": "Session ID", "name": "id", "in": "path", "required": true},
                    {"maximum": 500, "minimum": 1, "type": "integer", "default": 50, "description": "Max exchanges", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.HistoryResponse"}},
                    "304": {"description": "Not modified"},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Sessions"],
                "summary": "Delete the exchanges of one session",
                "operationId": "clearSessionHistory",
                "parameters": [
                    {"type": "string", "description": "Session ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.ClearResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/user/context": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Chat"],
                "summary": "What the assistant knows about the caller",
                "operationId": "userContext",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.UserContextResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "domain.ChatReply": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "session_id": {"type": "string"},
                "timestamp": {"type": "string"},
                "user_message": {"type": "string"}
            }
        },
        "domain.Message": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "user_id": {"type": "string"},
                "session_id": {"type": "string"},
                "user_message": {"type": "string"},
                "assistant_response": {"type": "string"},
                "message_length": {"type": "integer"},
                "response_length": {"type": "integer"},
                "message_type": {"type": "string", "example": "conversation"},
                "metadata": {"type": "object"},
                "created_at": {"type": "string"}
            }
        },
        "domain.Preferences": {
            "type": "object",
            "properties": {
                "restrictions": {"type": "array", "items": {"type": "string"}},
                "allergies": {"type": "array", "items": {"type": "string"}},
                "cuisine_preferences": {"type": "array", "items": {"type": "string"}},
                "likes": {"type": "array", "items": {"type": "string"}},
                "dislikes": {"type": "array", "items": {"type": "string"}},
                "custom": {"type": "array", "items": {"type": "string"}}
            }
        },
        "domain.PublicUser": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "username": {"type": "string"},
                "email": {"type": "string"},
                "created_at": {"type": "string"}
            }
        },
        "handlers.ChatRequest": {
            "type": "object",
            "properties": {
                "message": {"type": "string", "example": "Suggest a vegetarian dinner"},
                "session_id": {"type": "string", "example": "default"}
            }
        },
        "handlers.ClearResponse": {
            "type": "object",
            "properties": {
                "deleted": {"type": "integer"},
                "message": {"type": "string"},
                "session_id": {"type": "string"},
                "timestamp": {"type": "string"}
            }
        },
        "handlers.CreateSessionRequest": {
            "type": "object",
            "properties": {
                "session_name": {"type": "string", "example": "Weeknight dinners"}
            }
        },
        "handlers.CreateSessionResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string", "example": "Session created successfully"},
                "session_id": {"type": "string"},
                "session_name": {"type": "string"},
                "timestamp": {"type": "string"}
            }
        },
        "handlers.ErrorResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "string", "example": "not_found"},
                "message": {"type": "string", "example": "User not found"},
                "request_id": {"type": "string", "example": "123e4567-e89b-12d3-a456-426614174000"}
            }
        },
        "handlers.HealthResponse": {
            "type": "object",
            "properties": {
                "database": {"type": "string", "example": "sqlite"},
                "message": {"type": "string"},
                "status": {"type": "string", "example": "healthy"},
                "timestamp": {"type": "string"},
                "users_count": {"type": "integer"}
            }
        },
        "handlers.HistoryResponse": {
            "type": "object",
            "properties": {
                "chat_history": {"type": "array", "items": {"$ref": "#/definitions/domain.Message"}},
                "session_id": {"type": "string"},
                "timestamp": {"type": "string"},
                "total_messages": {"type": "integer"}
            }
        },
        "handlers.LoginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string", "example": "asha@example.com"},
                "password": {"type": "string", "example": "s3cret-pass"}
            }
        },
        "handlers.LoginResponse": {
            "type": "object",
            "properties": {
                "expires_at": {"type": "string", "example": "2025-04-01T09:00:00Z"},
                "expires_in": {"type": "integer", "example": 2592000},
                "message": {"type": "string", "example": "Login successful"},
                "token": {"type": "string"},
                "user": {"$ref": "#/definitions/domain.PublicUser"}
            }
        },
        "handlers.PreferencesResponse": {
            "type": "object",
            "properties": {
                "complete": {"type": "boolean"},
                "missing": {"type": "array", "items": {"type": "string"}},
                "preferences": {"$ref": "#/definitions/domain.Preferences"},
                "timestamp": {"type": "string"}
            }
        },
        "handlers.ProfileResponse": {
            "type": "object",
            "properties": {
                "timestamp": {"type": "string"},
                "user": {"$ref": "#/definitions/domain.PublicUser"}
            }
        },
        "handlers.RegisterRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string", "example": "asha@example.com"},
                "password": {"type": "string", "example": "s3cret-pass"},
                "username": {"type": "string", "example": "asha"}
            }
        },
        "handlers.RegisterResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string", "example": "User registered successfully"},
                "user": {"$ref": "#/definitions/domain.PublicUser"}
            }
        },
        "handlers.SearchRequest": {
            "type": "object",
            "properties": {
                "limit": {"type": "integer", "example": 10},
                "query": {"type": "string", "example": "paneer"}
            }
        },
        "handlers.SearchResponse": {
            "type": "object",
            "properties": {
                "query": {"type": "string"},
                "search_results": {"type": "array", "items": {"$ref": "#/definitions/domain.Message"}},
                "timestamp": {"type": "string"},
                "total_results": {"type": "integer"}
            }
        },
        "handlers.SessionsResponse": {
            "type": "object",
            "properties": {
                "sessions": {"type": "array", "items": {"type": "object"}},
                "timestamp": {"type": "string"},
                "total_sessions": {"type": "integer"}
            }
        },
        "handlers.SummaryResponse": {
            "type": "object",
            "properties": {
                "summary": {"type": "object"},
                "timestamp": {"type": "string"}
            }
        },
        "handlers.UpdatePreferencesRequest": {
            "type": "object",
            "properties": {
                "preferences": {"type": "object"}
            }
        },
        "handlers.UpdatePreferencesResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string", "example": "Preferences updated successfully"},
                "preferences": {"$ref": "#/definitions/domain.Preferences"},
                "timestamp": {"type": "string"}
            }
        },
        "handlers.UserContextResponse": {
            "type": "object",
            "properties": {
                "timestamp": {"type": "string"},
                "user_context": {"type": "object"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Type \"Bearer\" followed by a space and the token.",
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
	BasePath:         "/api",
	Schemes:          []string{},
	Title:            "Food Chat API",
	Description:      "Food recommendation chat backend: accounts, preferences, chat sessions and history.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
