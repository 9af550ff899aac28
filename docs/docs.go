// Package docs registers the OpenAPI document served at /swagger.
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
        "/giveaways": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Creates a funded giveaway. Keywords may be an array or a comma-separated string.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["giveaways"],
                "summary": "Create a giveaway",
                "parameters": [
                    {"description": "Giveaway parameters", "name": "input", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.CreateGiveawayRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/dto.CreateGiveawayResponse"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}},
                    "409": {"description": "Duplicate id", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}}
                }
            }
        },
        "/giveaways/{id}": {
            "get": {
                "description": "Returns the giveaway with claim progress and the derived expiry flag",
                "produces": ["application/json"],
                "tags": ["giveaways"],
                "summary": "Get a giveaway",
                "parameters": [
                    {"type": "string", "description": "Giveaway ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.GiveawayResponse"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}}
                }
            }
        },
        "/giveaways/{id}/claim": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Records a claim when the caller is eligible and queues settlement",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["claims"],
                "summary": "Claim from a giveaway",
                "parameters": [
                    {"type": "string", "description": "Giveaway ID", "name": "id", "in": "path", "required": true},
                    {"description": "Optional payout wallet", "name": "input", "in": "body", "schema": {"$ref": "#/definitions/dto.ClaimRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.ClaimResponse"}},
                    "409": {"description": "Already claimed", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}},
                    "422": {"description": "Not eligible", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}},
                    "429": {"description": "Rate limited", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}}
                }
            }
        },
        "/giveaways/{id}/verify": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Fetches the tweet, checks the required keywords, whitelists the caller and claims",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["claims"],
                "summary": "Verify a tweet and claim",
                "parameters": [
                    {"type": "string", "description": "Giveaway ID", "name": "id", "in": "path", "required": true},
                    {"description": "Tweet URL", "name": "input", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.VerifyRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.VerificationResponse"}},
                    "400": {"description": "Invalid tweet URL", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}},
                    "422": {"description": "Keywords missing or not eligible", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}},
                    "502": {"description": "Tweet could not be fetched", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}}
                }
            }
        },
        "/giveaways/{id}/cancel": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["giveaways"],
                "summary": "Cancel a giveaway",
                "parameters": [
                    {"type": "string", "description": "Giveaway ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}},
                    "403": {"description": "Not the creator", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}},
                    "422": {"description": "Already terminal", "schema": {"$ref": "#/definitions/middleware.ErrorResponse"}}
                }
            }
        },
        "/me/stats": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Current user stats",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.UserStats"}}
                }
            }
        },
        "/me/activity": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Up to 50 created giveaways and 50 claims, newest first",
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Current user activity",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.ActivityResponse"}}
                }
            }
        }
    },
    "definitions": {
        "dto.CreateGiveawayRequest": {
            "type": "object",
            "required": ["token", "expiration_hours"],
            "properties": {
                "id": {"type": "string"},
                "token": {"type": "string"},
                "amount_per_recipient": {"type": "string"},
                "total_amount": {"type": "string"},
                "keywords": {"type": "array", "items": {"type": "string"}},
                "expiration_hours": {"type": "integer"},
                "receiver": {"type": "string"},
                "max_recipients": {"type": "integer"},
                "allow_early_claim": {"type": "boolean"}
            }
        },
        "dto.CreateGiveawayResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "giveaway": {"$ref": "#/definitions/dto.GiveawayResponse"},
                "claim_link": {"type": "string"}
            }
        },
        "dto.GiveawayResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "creator_id": {"type": "string"},
                "creator_handle": {"type": "string"},
                "token": {"type": "string"},
                "amount_per_recipient": {"type": "string"},
                "total_amount": {"type": "string"},
                "keywords": {"type": "array", "items": {"type": "string"}},
                "receiver": {"type": "string"},
                "max_recipients": {"type": "integer"},
                "allow_early_claim": {"type": "boolean"},
                "claim_link": {"type": "string"},
                "status": {"type": "string", "enum": ["active", "completed", "cancelled"]},
                "created_at": {"type": "string"},
                "expires_at": {"type": "string"},
                "updated_at": {"type": "string"},
                "is_expired": {"type": "boolean"},
                "claims_count": {"type": "integer"},
                "claimed_amount": {"type": "string"}
            }
        },
        "dto.ClaimRequest": {
            "type": "object",
            "properties": {
                "wallet_address": {"type": "string"}
            }
        },
        "dto.VerifyRequest": {
            "type": "object",
            "required": ["tweet_url"],
            "properties": {
                "tweet_url": {"type": "string"},
                "wallet_address": {"type": "string"}
            }
        },
        "models.Claim": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "giveaway_id": {"type": "string"},
                "claimant_id": {"type": "string"},
                "claimant_handle": {"type": "string"},
                "wallet_address": {"type": "string"},
                "amount": {"type": "string"},
                "claimed_at": {"type": "string"}
            }
        },
        "dto.ClaimResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "claim": {"$ref": "#/definitions/models.Claim"},
                "settlement": {"type": "string", "enum": ["queued", "degraded"]},
                "message": {"type": "string"}
            }
        },
        "dto.VerificationResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "verified": {"type": "boolean"},
                "claim_outcome": {"type": "string", "enum": ["claimed", "already_claimed"]},
                "claim": {"$ref": "#/definitions/models.Claim"},
                "settlement": {"type": "string", "enum": ["queued", "degraded"]},
                "message": {"type": "string"}
            }
        },
        "models.UserStats": {
            "type": "object",
            "properties": {
                "total_giveaways": {"type": "integer"},
                "active_giveaways": {"type": "integer"},
                "completed_giveaways": {"type": "integer"},
                "verified_claims": {"type": "integer"}
            }
        },
        "models.ActivityItem": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "type": {"type": "string", "enum": ["created", "claimed"]},
                "description": {"type": "string"},
                "amount": {"type": "string"},
                "token": {"type": "string"},
                "status": {"type": "string"},
                "date": {"type": "string"}
            }
        },
        "dto.ActivityResponse": {
            "type": "object",
            "properties": {
                "items": {"type": "array", "items": {"$ref": "#/definitions/models.ActivityItem"}},
                "generated_at": {"type": "string"}
            }
        },
        "errors.AppError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "details": {"type": "object", "additionalProperties": true},
                "timestamp": {"type": "string"},
                "request_id": {"type": "string"}
            }
        },
        "middleware.ErrorResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "error": {"$ref": "#/definitions/errors.AppError"},
                "timestamp": {"type": "string"},
                "request_id": {"type": "string"},
                "path": {"type": "string"},
                "method": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Bearer JWT issued by the identity provider",
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
	Title:            "Tweet Giveaway API",
	Description:      "Token giveaways claimed by posting a tweet with the required keywords.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
