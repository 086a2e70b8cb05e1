package handlers

import (
	"github.com/fatflowers/backoffice/internal/app/service/account"
	"github.com/fatflowers/backoffice/internal/app/service/statistics"
	"github.com/fatflowers/backoffice/internal/models"
	"github.com/fatflowers/backoffice/pkg/response"
)

// Envelopes below exist for swagger only; handlers build them with response.OKT.

// RespOK is a generic OK envelope for endpoints returning no specific data.
type RespOK struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    interface{}              `json:"data"`
}

type RespLogin struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    account.LoginResult      `json:"data"`
}

type RespRoles struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    []models.Role            `json:"data"`
}

type RespRole struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    models.Role              `json:"data"`
}

type RespUsers struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    []models.UserView        `json:"data"`
}

type RespUser struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    models.User              `json:"data"`
}

type RespProductTypes struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    []models.ProductType     `json:"data"`
}

type RespProductType struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    models.ProductType       `json:"data"`
}

type RespPricingOptions struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    []models.PricingOption   `json:"data"`
}

type RespPricingOption struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    models.PricingOption     `json:"data"`
}

type RespProducts struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    []models.ProductView     `json:"data"`
}

type RespProduct struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    models.Product           `json:"data"`
}

type RespSubscriptions struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    []SubscriptionItem       `json:"data"`
}

type RespSubscription struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    SubscriptionItem         `json:"data"`
}

type RespSubscriptionDetail struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    SubscriptionDetail       `json:"data"`
}

type RespStatistics struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    statistics.Response      `json:"data"`
}
