package public

import (
	"errors"
	"strconv"
	"time"

	"github.com/studiocard/internal/cache"
	"github.com/studiocard/internal/http/response"
	"github.com/studiocard/internal/models"
	"github.com/studiocard/internal/service"

	"github.com/gin-gonic/gin"
)

const shopTemplateCacheTTL = 5 * time.Minute

// ListShopTemplates 获取店铺可售的礼品卡模板
func (h *Handler) ListShopTemplates(c *gin.Context) {
	shopID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || shopID == 0 {
		respondError(c, response.CodeBadRequest, "invalid shop id", err)
		return
	}

	var cached []models.GiftCardTemplate
	if hit, err := cache.GetJSON(c.Request.Context(), cache.ShopTemplatesKey(uint(shopID)), &cached); err == nil && hit {
		response.Success(c, cached)
		return
	}

	if _, err := h.ShopService.GetShop(uint(shopID)); err != nil {
		if errors.Is(err, service.ErrShopNotFound) {
			respondError(c, response.CodeNotFound, "shop not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "failed to fetch shop", err)
		return
	}
	templates, err := h.ShopService.ListTemplates(uint(shopID))
	if err != nil {
		respondError(c, response.CodeInternal, "failed to fetch templates", err)
		return
	}
	active := make([]models.GiftCardTemplate, 0, len(templates))
	for _, tpl := range templates {
		if tpl.IsActive {
			active = append(active, tpl)
		}
	}
	if err := cache.SetJSON(c.Request.Context(), cache.ShopTemplatesKey(uint(shopID)), active, shopTemplateCacheTTL); err != nil {
		requestLog(c).Debugw("shop_template_cache_set_failed", "shop_id", shopID, "error", err)
	}
	response.Success(c, active)
}
