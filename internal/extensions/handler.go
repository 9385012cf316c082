package extensions

import (
	"errors"
	"fmt"

	"estate-backend/internal/audit"
	"estate-backend/internal/auth"
	"estate-backend/internal/httpx"
	"estate-backend/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

func mapStoreErr(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, "extension not found")
	case errors.Is(err, ErrStore):
		return fiber.NewError(fiber.StatusInternalServerError, "extension store failure")
	default:
		return err
	}
}

// GET /api/admin/extensions
func ListExtensionsHandler(store *Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		exts, err := store.ListAll()
		if err != nil {
			return mapStoreErr(err)
		}
		return httpx.OK(c, exts)
	}
}

// PUT /api/admin/extensions/:id — partial patch, creates the row on first edit.
func UpsertExtensionHandler(store *Store, rec *audit.Recorder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		externalID := c.Params("id")

		var patch Patch
		if err := c.BodyParser(&patch); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := validate.Struct(patch); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid extension patch: "+err.Error())
		}

		before, err := store.GetByPropertyID(externalID)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return mapStoreErr(err)
		}

		ext, err := store.Upsert(externalID, patch)
		if err != nil {
			return mapStoreErr(err)
		}

		action := models.AuditActionUpdate
		if before == nil {
			action = models.AuditActionCreate
		}
		writeAudit(c, rec, audit.Entry{
			EntityType:  "extension",
			PropertyID:  externalID,
			Action:      action,
			Description: fmt.Sprintf("extension %sd for property %s", action, externalID),
			Before:      before,
			After:       ext,
		})

		return httpx.OK(c, ext)
	}
}

// DELETE /api/admin/extensions/:id — cascades to promotions and tags.
func DeleteExtensionHandler(store *Store, rec *audit.Recorder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		externalID := c.Params("id")

		before, err := store.GetByPropertyID(externalID)
		if err != nil {
			return mapStoreErr(err)
		}
		if err := store.Delete(externalID); err != nil {
			return mapStoreErr(err)
		}

		writeAudit(c, rec, audit.Entry{
			EntityType:  "extension",
			PropertyID:  externalID,
			Action:      models.AuditActionDelete,
			Description: "extension deleted for property " + externalID,
			Before:      before,
		})

		return c.SendStatus(fiber.StatusNoContent)
	}
}

// POST /api/admin/extensions/:id/promotions
func AddPromotionHandler(store *Store, rec *audit.Recorder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		externalID := c.Params("id")

		var in PromotionInput
		if err := c.BodyParser(&in); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := validate.Struct(in); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid promotion: "+err.Error())
		}

		promo, err := store.AddPromotion(externalID, in)
		if err != nil {
			return mapStoreErr(err)
		}

		writeAudit(c, rec, audit.Entry{
			EntityType:  "promotion",
			PropertyID:  externalID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("promotion %q added to property %s", promo.Label, externalID),
			After:       promo,
		})

		return httpx.Created(c, promo)
	}
}

// PUT /api/admin/extensions/:id/promotions/:promotionId
func UpdatePromotionHandler(store *Store, rec *audit.Recorder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		promoID := c.Params("promotionId")

		var patch PromotionPatch
		if err := c.BodyParser(&patch); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		// "end_date": null clears the end date; distinguish it from the key
		// being absent.
		var raw map[string]interface{}
		if err := c.App().Config().JSONDecoder(c.Body(), &raw); err == nil {
			_, patch.EndDateSet = raw["end_date"]
		}
		if err := validate.Struct(patch); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid promotion patch: "+err.Error())
		}

		promo, err := store.UpdatePromotion(promoID, patch)
		if err != nil {
			return mapStoreErr(err)
		}

		writeAudit(c, rec, audit.Entry{
			EntityType:  "promotion",
			PropertyID:  c.Params("id"),
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("promotion %q updated", promo.Label),
			After:       promo,
		})

		return httpx.OK(c, promo)
	}
}

// DELETE /api/admin/extensions/:id/promotions?promotionId=
func DeletePromotionHandler(store *Store, rec *audit.Recorder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		promoID := c.Query("promotionId")
		if promoID == "" {
			return fiber.NewError(fiber.StatusBadRequest, "promotionId is required")
		}

		if err := store.DeletePromotion(promoID); err != nil {
			return mapStoreErr(err)
		}

		writeAudit(c, rec, audit.Entry{
			EntityType:  "promotion",
			PropertyID:  c.Params("id"),
			Action:      models.AuditActionDelete,
			Description: "promotion " + promoID + " deleted",
		})

		return c.SendStatus(fiber.StatusNoContent)
	}
}

// POST /api/admin/extensions/:id/tags
func AddTagHandler(store *Store, rec *audit.Recorder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		externalID := c.Params("id")

		var in TagInput
		if err := c.BodyParser(&in); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := validate.Struct(in); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid tag: "+err.Error())
		}

		tag, err := store.AddTag(externalID, in)
		if err != nil {
			return mapStoreErr(err)
		}

		writeAudit(c, rec, audit.Entry{
			EntityType:  "tag",
			PropertyID:  externalID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("tag %q added to property %s", tag.Name, externalID),
			After:       tag,
		})

		return httpx.Created(c, tag)
	}
}

// DELETE /api/admin/extensions/:id/tags?tagId=
func DeleteTagHandler(store *Store, rec *audit.Recorder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tagID := c.Query("tagId")
		if tagID == "" {
			return fiber.NewError(fiber.StatusBadRequest, "tagId is required")
		}

		if err := store.DeleteTag(tagID); err != nil {
			return mapStoreErr(err)
		}

		writeAudit(c, rec, audit.Entry{
			EntityType:  "tag",
			PropertyID:  c.Params("id"),
			Action:      models.AuditActionDelete,
			Description: "tag " + tagID + " deleted",
		})

		return c.SendStatus(fiber.StatusNoContent)
	}
}

// writeAudit records the mutation with the acting user attached. A failed
// audit write is logged by the recorder's caller but never fails the request
// the mutation already succeeded for.
func writeAudit(c *fiber.Ctx, rec *audit.Recorder, e audit.Entry) {
	e.UserID, e.UserName = auth.CurrentUser(c)
	_ = rec.Record(e)
}
