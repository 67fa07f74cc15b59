package router

import (
	"github.com/gin-gonic/gin"
	"github.com/mosesmbadi/easymed-sub000/internal/interfaces/http/handler"
)

// Handlers are the endpoint handlers of the billing desk API
type Handlers struct {
	Sessions  *handler.PaymentSessionHandler
	Reference *handler.ReferenceHandler
	Receipts  *handler.ReceiptHandler
	Suppliers *handler.SupplierHandler
	System    *handler.SystemHandler
}

// DomainGroups builds the versioned route groups served behind authentication
func DomainGroups(h Handlers) []RouteRegistrar {
	sessions := NewDomainGroup("payment-sessions", "/payment-sessions").
		POST("", h.Sessions.Start).
		GET("/:id", h.Sessions.Get).
		DELETE("/:id", h.Sessions.Abandon).
		PUT("/:id/category", h.Sessions.SelectCategory).
		PUT("/:id/customer", h.Sessions.SelectCustomer).
		GET("/:id/invoices", h.Sessions.LoadInvoices).
		PUT("/:id/invoices", h.Sessions.SelectInvoices).
		PUT("/:id/amount", h.Sessions.SetAmount).
		PUT("/:id/details", h.Sessions.SetDetails).
		GET("/:id/summary", h.Sessions.Summary).
		POST("/:id/submit", h.Sessions.Submit)

	modes := NewDomainGroup("payment-modes", "/payment-modes").
		GET("", h.Reference.PaymentModes).
		GET("/breakdown", h.Reference.PaymentModeBreakdown)

	patients := NewDomainGroup("patients", "/patients").
		GET("", h.Reference.Patients)

	insurers := NewDomainGroup("insurers", "/insurers").
		GET("", h.Reference.Insurers)

	suppliers := NewDomainGroup("suppliers", "/suppliers").
		GET("", h.Reference.Suppliers).
		GET("/:id/invoices", h.Suppliers.Statement)

	supplierPayments := NewDomainGroup("supplier-payments", "/supplier-payments").
		POST("", h.Suppliers.Pay)

	receipts := NewDomainGroup("receipts", "/receipts").
		GET("", h.Receipts.List).
		GET("/:id/document", h.Receipts.Document)

	system := NewDomainGroup("system", "/system").
		GET("/info", h.System.GetSystemInfo).
		GET("/ping", h.System.Ping)

	return []RouteRegistrar{sessions, modes, patients, insurers, suppliers, supplierPayments, receipts, system}
}

// RegisterHealth mounts the unauthenticated probes outside the versioned API
func RegisterHealth(engine *gin.Engine, system *handler.SystemHandler) {
	health := engine.Group("/health")
	health.GET("/live", system.Live)
	health.GET("/ready", system.Ready)
}
