package Controllers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"ShiftCheck/Engine"
)

// ChangesController serves the long-poll change feed dashboards use to
// know when to re-fetch. The response carries no payload; a changed=true
// answer means "fetch again", nothing more.
type ChangesController struct {
	Hub *Engine.Hub
}

func NewChangesController(hub *Engine.Hub) *ChangesController {
	return &ChangesController{Hub: hub}
}

const longPollTimeout = 25 * time.Second

// Poll blocks until something changes on the tenant's submissions feed or
// the timeout elapses. The subscription lives only for the request, so a
// change landing between two polls is missed here; clients re-fetch before
// their first poll to cover that gap.
func (cc *ChangesController) Poll(c *fiber.Ctx) error {
	topic := Engine.Topic("submissions", currentUser(c).TenantID)
	ch, cancel := cc.Hub.Subscribe(topic)
	defer cancel()

	timer := time.NewTimer(longPollTimeout)
	defer timer.Stop()

	select {
	case <-ch:
		return c.JSON(fiber.Map{"changed": true})
	case <-timer.C:
		return c.JSON(fiber.Map{"changed": false})
	case <-c.Context().Done():
		return nil
	}
}
