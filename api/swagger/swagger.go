package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Greenfield Academy Admin API",
        "description": "Backend for the school administration console",
        "version": "1.0.0"
    },
    "basePath": "/api",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Auth", "description": "Admin authentication"},
        {"name": "Staff", "description": "Staff directory"},
        {"name": "Campaigns", "description": "Email campaigns and recipient groups"},
        {"name": "Subscribers", "description": "Newsletter subscriptions"}
    ],
    "paths": {
        "/admin/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Admin login",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "Token pair issued"},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        },
        "/staff": {
            "get": {
                "tags": ["Staff"],
                "summary": "List staff members",
                "parameters": [
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "role", "in": "query", "type": "string"},
                    {"name": "department", "in": "query", "type": "string"},
                    {"name": "active", "in": "query", "type": "boolean"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            },
            "post": {
                "tags": ["Staff"],
                "summary": "Create staff member",
                "consumes": ["multipart/form-data"],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        },
        "/emails": {
            "get": {
                "tags": ["Campaigns"],
                "summary": "List email campaigns",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            },
            "post": {
                "tags": ["Campaigns"],
                "summary": "Create draft campaign",
                "consumes": ["multipart/form-data"],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        },
        "/emails/{id}": {
            "patch": {
                "tags": ["Campaigns"],
                "summary": "Publish a draft campaign",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Dispatch accepted", "schema": {"$ref": "#/definitions/Envelope"}},
                    "409": {"description": "Already sent", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        },
        "/campaign": {
            "post": {
                "tags": ["Campaigns"],
                "summary": "Send an ad-hoc campaign",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SendCampaignRequest"}}
                ],
                "responses": {
                    "201": {"description": "Dispatch accepted", "schema": {"$ref": "#/definitions/Envelope"}},
                    "400": {"description": "No recipients", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        },
        "/groups": {
            "get": {
                "tags": ["Campaigns"],
                "summary": "List recipient groups with live counts",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        },
        "/subscriber": {
            "get": {
                "tags": ["Subscribers"],
                "summary": "List subscribers",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "SendCampaignRequest": {
            "type": "object",
            "required": ["group", "subject", "content"],
            "properties": {
                "group": {"type": "string"},
                "subject": {"type": "string"},
                "content": {"type": "string"}
            }
        },
        "Envelope": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "error": {"type": "string"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
