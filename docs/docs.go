// Package docs registers the OpenAPI description of the handbook API with swag.
// Regenerate with `swag init -g cmd/api/main.go` after changing controller annotations.
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
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "paths": {
        "/messages": {
            "get": {
                "tags": ["messages"],
                "summary": "Get a conversation",
                "parameters": [
                    {"type": "string", "name": "userId", "in": "query", "required": true},
                    {"type": "string", "name": "adminId", "in": "query"},
                    {"enum": ["user", "admin"], "type": "string", "name": "perspective", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}
            },
            "post": {
                "tags": ["messages"],
                "summary": "Send a message",
                "parameters": [{"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.SendMessageRequest"}}],
                "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}, "403": {"description": "Forbidden"}}
            }
        },
        "/messages/{id}": {
            "put": {
                "tags": ["messages"],
                "summary": "Edit a message",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.EditMessageRequest"}}
                ],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            },
            "delete": {
                "tags": ["messages"],
                "summary": "Soft delete a message",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.DeleteMessageRequest"}}
                ],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            }
        },
        "/messages/{id}/reactions": {
            "post": {
                "tags": ["messages"],
                "summary": "Toggle a reaction",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.ReactRequest"}}
                ],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            }
        },
        "/messages/read": {
            "patch": {
                "tags": ["messages"],
                "summary": "Mark a conversation read",
                "parameters": [{"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.MarkReadRequest"}}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/messages/unread": {
            "get": {"tags": ["messages"], "summary": "Unread counts per student", "parameters": [{"type": "string", "name": "adminId", "in": "query"}], "responses": {"200": {"description": "OK"}}}
        },
        "/messages/latest": {
            "get": {"tags": ["messages"], "summary": "Latest message time per student", "parameters": [{"type": "string", "name": "adminId", "in": "query"}], "responses": {"200": {"description": "OK"}}}
        },
        "/notifications": {
            "get": {"tags": ["notifications"], "summary": "List notifications", "parameters": [{"type": "string", "name": "userId", "in": "query", "required": true}], "responses": {"200": {"description": "OK"}}},
            "delete": {"tags": ["notifications"], "summary": "Clear notifications", "parameters": [{"type": "string", "name": "userId", "in": "query", "required": true}], "responses": {"200": {"description": "OK"}}}
        },
        "/notifications/read": {
            "patch": {
                "tags": ["notifications"],
                "summary": "Mark notifications read",
                "parameters": [{"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.MarkNotificationsReadRequest"}}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}
            }
        },
        "/users/presence": {
            "post": {
                "tags": ["users"],
                "summary": "Mark a student active",
                "parameters": [{"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.PresenceRequest"}}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            }
        },
        "/users/chat": {
            "get": {"tags": ["users"], "summary": "List students for the chat sidebar", "responses": {"200": {"description": "OK"}}}
        },
        "/announcements": {
            "get": {
                "tags": ["announcements"],
                "summary": "List announcements",
                "parameters": [
                    {"type": "integer", "default": 100, "name": "limit", "in": "query"},
                    {"enum": ["asc", "desc"], "type": "string", "default": "desc", "name": "sort", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["announcements"],
                "summary": "Publish announcements",
                "parameters": [{"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.CreateAnnouncementsRequest"}}],
                "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}}
            }
        },
        "/announcements/{id}": {
            "patch": {
                "tags": ["announcements"],
                "summary": "Update an announcement",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.UpdateAnnouncementRequest"}}
                ],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            },
            "delete": {
                "tags": ["announcements"],
                "summary": "Delete an announcement",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            }
        },
        "/health": {
            "get": {"tags": ["health"], "summary": "Readiness probe", "responses": {"200": {"description": "OK"}, "503": {"description": "Service Unavailable"}}}
        }
    },
    "definitions": {
        "dto.AttachmentRequest": {
            "type": "object",
            "properties": {
                "fileName": {"type": "string"}, "fileType": {"type": "string"}, "fileSize": {"type": "integer"},
                "fileData": {"type": "string"}, "mimeType": {"type": "string"}
            }
        },
        "dto.SendMessageRequest": {
            "type": "object",
            "required": ["senderId", "receiverId"],
            "properties": {
                "senderId": {"type": "string", "example": "2021-00123"},
                "receiverId": {"type": "string", "example": "admin"},
                "senderName": {"type": "string"},
                "senderInitials": {"type": "string"},
                "text": {"type": "string"},
                "repliedTo": {"type": "string"},
                "attachments": {"type": "array", "items": {"$ref": "#/definitions/dto.AttachmentRequest"}},
                "perspective": {"type": "string", "enum": ["user", "admin"]}
            }
        },
        "dto.EditMessageRequest": {
            "type": "object",
            "properties": {"text": {"type": "string"}, "editorId": {"type": "string"}}
        },
        "dto.DeleteMessageRequest": {
            "type": "object",
            "required": ["deletedBy"],
            "properties": {"deletedBy": {"type": "string"}, "deletedByName": {"type": "string"}}
        },
        "dto.ReactRequest": {
            "type": "object",
            "required": ["userId", "emoji"],
            "properties": {"userId": {"type": "string"}, "emoji": {"type": "string"}}
        },
        "dto.MarkReadRequest": {
            "type": "object",
            "required": ["userId"],
            "properties": {"userId": {"type": "string"}, "adminId": {"type": "string"}, "perspective": {"type": "string", "enum": ["user", "admin"]}}
        },
        "dto.MarkNotificationsReadRequest": {
            "type": "object",
            "required": ["userId"],
            "properties": {"userId": {"type": "string"}, "ids": {"type": "array", "items": {"type": "string"}}, "markAll": {"type": "boolean"}}
        },
        "dto.PresenceRequest": {
            "type": "object",
            "required": ["userId"],
            "properties": {"userId": {"type": "string"}}
        },
        "dto.AnnouncementInput": {
            "type": "object",
            "properties": {"title": {"type": "string"}, "content": {"type": "string"}, "isImportant": {"type": "boolean"}}
        },
        "dto.CreateAnnouncementsRequest": {
            "type": "object",
            "required": ["announcements"],
            "properties": {
                "announcements": {"type": "array", "items": {"$ref": "#/definitions/dto.AnnouncementInput"}},
                "createdBy": {"type": "string"},
                "createdByName": {"type": "string"}
            }
        },
        "dto.UpdateAnnouncementRequest": {
            "type": "object",
            "properties": {"title": {"type": "string"}, "content": {"type": "string"}, "isImportant": {"type": "boolean"}}
        }
    },
    "security": [{"BearerAuth": []}]
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{"http", "https"},
	Title:            "Handbook API",
	Description:      "Messaging and notification core of the school handbook",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
