package handlers

import (
	"net/http"

	"pizza-franchise-api/policy"

	"github.com/gin-gonic/gin"
)

// GetPolicy documents the authorization rules in evaluation order.
func GetPolicy(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"evaluation": "first matching rule wins; no match denies",
		"rules":      policy.Rules(),
		"actions": []policy.Action{
			policy.ActionRead, policy.ActionList, policy.ActionCreate, policy.ActionUpdate, policy.ActionDelete,
		},
		"resources": []policy.ResourceKind{
			policy.ResourceUser, policy.ResourceOrder, policy.ResourceStore, policy.ResourceFranchise, policy.ResourceMenu,
		},
	})
}

// Health reports liveness.
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "Pizza Franchise API",
		"version": "1.0.0",
	})
}
