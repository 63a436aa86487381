package routes

import (
	"bundler/controllers"

	"github.com/gin-gonic/gin"
)

func SetupUserOpRouter(r *gin.Engine, userOpController *controllers.UserOpController) {
	r.POST("/userOp", userOpController.StoreUserOp)
	r.POST("/userOp/hash", userOpController.UserOpHash)
	r.GET("/userOp/:txHash", userOpController.GetUserOp)
	r.GET("/entrypoint/nonce", userOpController.GetNonce)
}
