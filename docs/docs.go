// Package docs registers the OpenAPI document served at /swagger/*any.
// Regenerate with `swag init -g cmd/opc-server/main.go` after changing
// handler annotations.
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
                "description": "Runs one agent turn for the session and returns the assistant reply.\nA repeated Idempotency-Key within its TTL returns the stored reply.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Chat"],
                "summary": "Send a chat message",
                "operationId": "postChat",
                "parameters": [
                    {"type": "string", "example": "msg-0001", "description": "Retry-safe request key", "name": "Idempotency-Key", "in": "header"},
                    {"type": "string", "description": "Chat session", "name": "X-Session-ID", "in": "header"},
                    {"description": "Chat payload", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.ChatRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.ChatResponse"}, "headers": {"Idempotency-Replayed": {"type": "string", "description": "true when a stored reply was served"}}},
                    "400": {"description": "Missing or invalid message", "schema": {"$ref": "#/definitions/handlers.ChatResponse"}},
                    "429": {"description": "Rate limited", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Agent or storage failure", "schema": {"$ref": "#/definitions/handlers.ChatResponse"}}
                }
            }
        },
        "/welcome": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Chat"],
                "summary": "Opening greeting",
                "operationId": "getWelcome",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.WelcomeResponse"}}}
            }
        },
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["System"],
                "summary": "Liveness probe",
                "operationId": "getHealth",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.HealthResponse"}}}
            }
        },
        "/share/text": {
            "get": {
                "description": "Returns ready-to-post promotional texts for WeChat Moments, WeChat chats and Weibo.",
                "produces": ["application/json"],
                "tags": ["Share"],
                "summary": "Share copy",
                "operationId": "getShareText",
                "parameters": [{"type": "string", "description": "Link to share (defaults to the public site)", "name": "url", "in": "query"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.ShareTexts"}}}
            }
        },
        "/share/qrcode.png": {
            "get": {
                "produces": ["image/png"],
                "tags": ["Share"],
                "summary": "Share QR code",
                "operationId": "getShareQRCode",
                "parameters": [{"type": "string", "description": "Link to encode (defaults to the public site)", "name": "url", "in": "query"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "file"}},
                    "404": {"description": "No share link configured", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/payment/info": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Payment"],
                "summary": "Payment details",
                "operationId": "getPaymentInfo",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.PaymentInfo"}}}
            }
        },
        "/payment/qrcode.png": {
            "get": {
                "description": "Encodes the configured collection QR URL of the channel, falling back to its account.",
                "produces": ["image/png"],
                "tags": ["Payment"],
                "summary": "Payment QR code",
                "operationId": "getPaymentQRCode",
                "parameters": [{"enum": ["wechat", "alipay"], "type": "string", "default": "wechat", "description": "wechat or alipay", "name": "channel", "in": "query"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "file"}},
                    "400": {"description": "Unknown channel", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "404": {"description": "Channel not configured", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/admin/customers": {
            "get": {
                "security": [{"AdminToken": []}],
                "description": "Most recently active first.",
                "produces": ["application/json"],
                "tags": ["Admin"],
                "summary": "List customers (paginated)",
                "operationId": "listCustomers",
                "parameters": [
                    {"minimum": 1, "type": "integer", "default": 1, "description": "Page number", "name": "page", "in": "query"},
                    {"maximum": 100, "minimum": 1, "type": "integer", "default": 20, "description": "Items per page", "name": "page_size", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.ListCustomersResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/admin/customers/{contact}": {
            "get": {
                "security": [{"AdminToken": []}],
                "description": "Profile, recommendations, payments and service record of one customer.\nWith format=text the same rendering the assistant uses is returned as plain text.",
                "produces": ["application/json", "text/plain"],
                "tags": ["Admin"],
                "summary": "Customer summary",
                "operationId": "getCustomer",
                "parameters": [
                    {"type": "string", "description": "Phone number or email", "name": "contact", "in": "path", "required": true},
                    {"enum": ["json", "text"], "type": "string", "default": "json", "description": "json or text", "name": "format", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "404": {"description": "Customer not found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/admin/stats": {
            "get": {
                "security": [{"AdminToken": []}],
                "produces": ["application/json"],
                "tags": ["Admin"],
                "summary": "Customer statistics",
                "operationId": "getStats",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "handlers.ChatRequest": {
            "type": "object",
            "properties": {
                "message": {"type": "string", "example": "我在杭州，会编程，想做副业"},
                "session_id": {"type": "string", "example": "5f1c2b9e-7a43-4f0e-9a1d-2c3b4d5e6f70"}
            }
        },
        "handlers.ChatResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean", "example": true},
                "reply": {"type": "string"},
                "error": {"type": "string", "example": "请提供消息内容"}
            }
        },
        "handlers.ErrorResponse": {
            "type": "object",
            "properties": {
                "request_id": {"type": "string", "example": "123e4567-e89b-12d3-a456-426614174000"},
                "code": {"type": "string", "example": "not_found"},
                "message": {"type": "string", "example": "customer not found"}
            }
        },
        "handlers.HealthResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "example": "ok"},
                "service": {"type": "string", "example": "opc-agent"}
            }
        },
        "handlers.WelcomeResponse": {
            "type": "object",
            "properties": {"reply": {"type": "string"}}
        },
        "handlers.ShareTexts": {
            "type": "object",
            "properties": {
                "wechat_moment": {"type": "string"},
                "wechat_friend": {"type": "string"},
                "weibo": {"type": "string"},
                "default": {"type": "string"}
            }
        },
        "handlers.PaymentInfo": {
            "type": "object",
            "properties": {
                "product_name": {"type": "string", "example": "OPC创业指导PDF"},
                "price": {"type": "string", "example": "68.00"},
                "wechat_account": {"type": "string"},
                "alipay_account": {"type": "string"},
                "wechat_qrcode_url": {"type": "string"},
                "alipay_qrcode_url": {"type": "string"}
            }
        },
        "handlers.Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total": {"type": "integer"},
                "total_pages": {"type": "integer"},
                "has_next": {"type": "boolean"}
            }
        },
        "handlers.ListCustomersResponse": {
            "type": "object",
            "properties": {
                "customers": {"type": "array", "items": {"type": "object"}},
                "pagination": {"$ref": "#/definitions/handlers.Pagination"}
            }
        }
    },
    "securityDefinitions": {
        "AdminToken": {"type": "apiKey", "name": "X-Admin-Token", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api",
	Schemes:          []string{},
	Title:            "OPC Agent API",
	Description:      "Lead-generation and fulfilment chat assistant for the OPC incubator.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
