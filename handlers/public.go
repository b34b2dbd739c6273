package handlers

import (
	"net/http"

	"github.com/exceptionzofficial/testing-backend-akshaya/statemachine"

	"github.com/gin-gonic/gin"
)

// GetStateMachineInfo returns both status machines for informational purposes
func (h *Handler) GetStateMachineInfo(c *gin.Context) {
	terminal := []string{}
	for _, s := range statemachine.OrderStatuses {
		if statemachine.IsTerminalOrder(s) {
			terminal = append(terminal, string(s))
		}
	}
	respond(c, http.StatusOK, "", gin.H{
		"order": gin.H{
			"statuses":        statemachine.OrderStatuses,
			"transitions":     statemachine.GetOrderTransitions(),
			"terminal_states": terminal,
			"note":            "any listed status is accepted; transitions outside the table are logged",
		},
		"rider": gin.H{
			"statuses": statemachine.RiderStatuses,
			"effects": []gin.H{
				{"to": "on-delivery", "with": "currentOrderId", "effect": statemachine.EffectAttachOrder.String()},
				{"from": "on-delivery", "to": "available|offline", "effect": statemachine.EffectRelease.String()},
			},
		},
	})
}
