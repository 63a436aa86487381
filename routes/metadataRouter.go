package routes

import (
	"bundler/controllers"

	"github.com/gin-gonic/gin"
)

// SetupMetadataRouter 初始化元数据路由
func SetupMetadataRouter(r *gin.Engine, metadataController *controllers.MetadataController) {
	r.GET("/metadata", metadataController.GetMetadata)
	r.GET("/chains", metadataController.ListChains)
	r.GET("/metadata/tokens", metadataController.ListTokenMetadata)

	admin := r.Group("/admin")
	admin.POST("/metadata", metadataController.AddTokenMetadata)
}
