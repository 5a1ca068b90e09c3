package handler

import (
	"github.com/gin-gonic/gin"
)

// NewRouter builds the gin engine with all routes registered.
func NewRouter(payslipHandler *PayslipHandler, maxMultipartMemory int64) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.MaxMultipartMemory = maxMultipartMemory

	RegisterRoutes(router, payslipHandler)
	return router
}

// RegisterRoutes mounts the health check and the versioned API. The report
// endpoints exist only when the handler has a history store.
func RegisterRoutes(router gin.IRouter, payslipHandler *PayslipHandler) {
	router.GET("/health", payslipHandler.Health)

	api := router.Group("/api/v1")
	{
		payslips := api.Group("/payslips")
		{
			payslips.POST("/verify", payslipHandler.VerifyPayslip)
		}
		if payslipHandler.history != nil {
			reports := api.Group("/reports")
			{
				reports.GET("", payslipHandler.ListReports)
				reports.GET("/:id", payslipHandler.GetReport)
			}
		}
	}
}
