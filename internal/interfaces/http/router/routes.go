package router

import (
	"github.com/dpnk/backend/internal/interfaces/http/handler"
	"github.com/gin-gonic/gin"
)

// Handlers bundles every HTTP handler served under the versioned API
type Handlers struct {
	Auth         *handler.AuthHandler
	Account      *handler.AccountHandler
	Campaign     *handler.CampaignHandler
	Organization *handler.OrganizationHandler
	Team         *handler.TeamHandler
	Trip         *handler.TripHandler
	Competition  *handler.CompetitionHandler
	Payment      *handler.PaymentHandler
	Invoice      *handler.InvoiceHandler
	Delivery     *handler.DeliveryHandler
	Admin        *handler.AdminHandler
	System       *handler.SystemHandler
}

// Guards are the access middlewares attached per route group. A nil guard
// is skipped.
type Guards struct {
	// Auth rejects requests without a valid access token
	Auth gin.HandlerFunc
	// OptionalAuth reads the token when present
	OptionalAuth gin.HandlerFunc
	// Staff requires the staff flag, used after Auth
	Staff gin.HandlerFunc
	// AuthRateLimit throttles login, registration and token refresh
	AuthRateLimit gin.HandlerFunc
}

// Groups builds the route groups of the API
func Groups(h Handlers, g Guards) []*DomainGroup {
	public := NewDomainGroup("public", "").Use(g.OptionalAuth)
	public.GET("/health", h.System.Health)
	public.GET("/campaign", h.Campaign.GetCampaign)
	public.GET("/campaign/phases", h.Campaign.GetPhases)
	public.GET("/campaign/tshirt-sizes", h.Campaign.GetTShirtSizes)
	public.GET("/campaign/cities", h.Campaign.GetCities)
	public.GET("/competitions", h.Competition.ListCompetitions)
	public.GET("/competitions/:slug/results", h.Competition.Results)

	// PayU posts status notifications without credentials; the signature
	// is checked by the handler
	gateway := NewDomainGroup("gateway", "/payu")
	gateway.POST("/notify", h.Payment.Notify)

	authRoutes := NewDomainGroup("auth", "/auth")
	credentials := authRoutes.Group("credentials", "").Use(g.AuthRateLimit)
	credentials.POST("/register", h.Auth.Register)
	credentials.POST("/login", h.Auth.Login)
	credentials.POST("/refresh", h.Auth.RefreshToken)
	session := authRoutes.Group("session", "").Use(g.Auth)
	session.POST("/logout", h.Auth.Logout)
	session.PUT("/password", h.Auth.ChangePassword)

	account := NewDomainGroup("account", "/me").Use(g.Auth)
	account.GET("", h.Account.Me)
	account.POST("/attend", h.Account.Attend)
	account.PUT("/profile", h.Account.UpdateProfile)
	account.PUT("/tshirt", h.Account.ChooseTShirt)
	account.GET("/vouchers", h.Account.MyVouchers)
	account.POST("/vouchers/:type", h.Account.AssignVoucher)
	account.GET("/results", h.Competition.MyResults)

	organization := NewDomainGroup("organization", "").Use(g.Auth)
	organization.GET("/companies", h.Organization.ListCompanies)
	organization.POST("/companies", h.Organization.CreateCompany)
	organization.GET("/companies/:id/subsidiaries", h.Organization.ListSubsidiaries)
	organization.POST("/subsidiaries", h.Organization.CreateSubsidiary)
	organization.POST("/company-admin/request", h.Organization.RequestCompanyAdmin)
	organization.GET("/company-admin/invoices", h.Invoice.ListCompanyInvoices)
	organization.POST("/company-admin/invoices", h.Invoice.CreateInvoice)
	organization.GET("/company-admin/payments", h.Payment.CompanyPayments)
	organization.POST("/company-admin/payments/approve", h.Payment.ApproveCompanyPayments)
	organization.GET("/invoices/:id/pdf", h.Invoice.PDF)

	teams := NewDomainGroup("teams", "/teams").Use(g.Auth)
	teams.GET("", h.Team.ListTeams)
	teams.POST("", h.Team.CreateTeam)
	teams.GET("/mine", h.Team.MyTeam)
	teams.POST("/join", h.Team.JoinTeam)
	teams.POST("/leave", h.Team.LeaveTeam)
	teams.POST("/members/:id/approve", h.Team.ApproveMember)
	teams.POST("/members/:id/deny", h.Team.DenyMember)
	teams.POST("/invitation-token", h.Team.RegenerateInvitationToken)
	teams.POST("/invite", h.Team.Invite)

	trips := NewDomainGroup("trips", "/trips").Use(g.Auth)
	trips.GET("", h.Trip.ListTrips)
	trips.POST("", h.Trip.LogTrip)
	trips.GET("/calendar", h.Trip.Calendar)
	trips.POST("/gpx", h.Trip.ImportGPX)
	trips.DELETE("/:id", h.Trip.DeleteTrip)
	trips.GET("/:id/track", h.Trip.TrackURL)

	competitions := NewDomainGroup("competitions", "/competitions").Use(g.Auth)
	competitions.GET("/:slug/questions", h.Competition.Questions)
	competitions.POST("/:slug/answers", h.Competition.SubmitAnswers)

	payments := NewDomainGroup("payments", "").Use(g.Auth)
	payments.GET("/payments", h.Payment.MyPayments)
	payments.POST("/payments", h.Payment.StartPayment)
	payments.POST("/payments/company", h.Payment.ChooseCompanyPays)
	payments.GET("/payments/return/:status", h.Payment.PaymentReturn)
	payments.POST("/coupons/apply", h.Payment.ApplyCoupon)

	system := NewDomainGroup("system", "/system").Use(g.Auth, g.Staff)
	system.GET("/info", h.System.GetSystemInfo)

	admin := NewDomainGroup("admin", "/admin").Use(g.Auth, g.Staff)
	admin.GET("/statistics", h.Admin.Statistics)
	admin.GET("/export/attendances", h.Admin.ExportAttendances)
	admin.GET("/export/competitions/:slug", h.Admin.ExportResults)
	admin.POST("/import/companies", h.Admin.ImportCompanies)
	admin.POST("/results/flush", h.Admin.FlushResults)
	admin.POST("/mailing/sync", h.Admin.SyncMailing)
	admin.POST("/company-admins/:user_id/decision", h.Organization.DecideCompanyAdmin)
	admin.POST("/competitions", h.Competition.CreateCompetition)
	admin.POST("/competitions/:slug/questions", h.Competition.AddQuestion)
	admin.POST("/answers/:id/points", h.Competition.GivePoints)
	admin.POST("/transactions", h.Payment.AddCommonTransaction)
	admin.GET("/invoices", h.Invoice.List)
	admin.POST("/invoices/:id/paid", h.Invoice.MarkPaid)
	admin.POST("/packages/delivered", h.Delivery.MarkDelivered)

	batches := admin.Group("delivery", "/delivery-batches")
	batches.GET("", h.Delivery.ListBatches)
	batches.POST("", h.Delivery.CreateBatch)
	batches.GET("/:id", h.Delivery.GetBatch)
	batches.GET("/:id/customer-sheets", h.Delivery.CustomerSheets)
	batches.GET("/:id/order-file", h.Delivery.OrderFile)
	batches.POST("/:id/dispatch", h.Delivery.Dispatch)

	return []*DomainGroup{
		public, gateway, authRoutes, account, organization, teams,
		trips, competitions, payments, system, admin,
	}
}

// Mount registers every API route group with r
func Mount(r *Router, h Handlers, g Guards) {
	for _, group := range Groups(h, g) {
		r.Register(group)
	}
}
