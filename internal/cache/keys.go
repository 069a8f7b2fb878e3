package cache

import "fmt"

// ShopTemplatesKey 店铺可售模板列表的缓存键
func ShopTemplatesKey(shopID uint) string {
	return fmt.Sprintf("shop_templates:%d", shopID)
}
