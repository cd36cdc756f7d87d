// Package docs registers the Mesto OpenAPI document with swag.
// Regenerate with: swag init -g cmd/server/main.go -o docs
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/signup": {
            "post": {
                "tags": ["auth"],
                "summary": "User signup",
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/service.RegisterInput"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"type": "object", "properties": {"data": {"$ref": "#/definitions/models.User"}}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.ErrorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/signin": {
            "post": {
                "tags": ["auth"],
                "summary": "User login",
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"type": "object", "properties": {"email": {"type": "string"}, "password": {"type": "string"}}}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/server.Message"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/signout": {
            "post": {
                "tags": ["auth"],
                "summary": "User logout",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/server.Message"}}}
            }
        },
        "/users": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["users"],
                "summary": "List users",
                "parameters": [
                    {"type": "integer", "description": "Page size (max 100)", "name": "limit", "in": "query"},
                    {"type": "integer", "description": "Offset", "name": "offset", "in": "query"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"type": "object", "properties": {"users": {"type": "array", "items": {"$ref": "#/definitions/models.User"}}}}}}
            }
        },
        "/users/me": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["users"],
                "summary": "Current user",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.User"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            },
            "patch": {
                "security": [{"BearerAuth": []}],
                "tags": ["users"],
                "summary": "Update name and about",
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"type": "object", "properties": {"name": {"type": "string"}, "about": {"type": "string"}}}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.User"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/users/me/avatar": {
            "patch": {
                "security": [{"BearerAuth": []}],
                "tags": ["users"],
                "summary": "Update avatar",
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"type": "object", "properties": {"avatar": {"type": "string"}}}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.User"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/users/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["users"],
                "summary": "User by id",
                "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "properties": {"data": {"$ref": "#/definitions/models.User"}}}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/cards": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["cards"],
                "summary": "List cards, newest first",
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/models.Card"}}}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["cards"],
                "summary": "Create a card",
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"type": "object", "properties": {"name": {"type": "string"}, "link": {"type": "string"}}}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/models.Card"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/cards/{id}": {
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["cards"],
                "summary": "Delete own card",
                "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/server.Message"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/models.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/cards/{id}/likes": {
            "put": {
                "security": [{"BearerAuth": []}],
                "tags": ["cards"],
                "summary": "Like a card",
                "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Card"}}}
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["cards"],
                "summary": "Remove a like",
                "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Card"}}}
            }
        },
        "/uploads": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["multipart/form-data"],
                "tags": ["media"],
                "summary": "Upload an image",
                "parameters": [{"type": "file", "name": "image", "in": "formData", "required": true}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/service.UploadResult"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "models.User": {
            "type": "object",
            "properties": {
                "_id": {"type": "integer"},
                "name": {"type": "string"},
                "about": {"type": "string"},
                "avatar": {"type": "string"},
                "email": {"type": "string"},
                "createdAt": {"type": "string"}
            }
        },
        "models.Card": {
            "type": "object",
            "properties": {
                "_id": {"type": "integer"},
                "name": {"type": "string"},
                "link": {"type": "string"},
                "owner": {"type": "integer"},
                "likes": {"type": "array", "items": {"type": "integer"}},
                "createdAt": {"type": "string"}
            }
        },
        "models.ErrorResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "code": {"type": "string"},
                "details": {"type": "string"}
            }
        },
        "server.Message": {
            "type": "object",
            "properties": {"message": {"type": "string"}}
        },
        "service.RegisterInput": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "about": {"type": "string"},
                "avatar": {"type": "string"},
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "service.UploadResult": {
            "type": "object",
            "properties": {
                "url": {"type": "string"},
                "webp": {"type": "string"},
                "hash": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Type \"Bearer\" followed by a space and JWT token. Browsers use the jwt cookie instead.",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:3000",
	BasePath:         "/",
	Schemes:          []string{"http", "https"},
	Title:            "Mesto API",
	Description:      "Photo-sharing API with profiles, cards and likes",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
