package integration

// Operation is the name of an adapter operation. The string values are part
// of the wire contract with remote adapter endpoints and must not change.
type Operation string

// Fulfillment (channel) side operations
const (
	OpSearchProducts         Operation = "searchProductsFunction"
	OpGetProduct             Operation = "getProductFunction"
	OpCreatePurchase         Operation = "createPurchaseFunction"
	OpCreateWebhook          Operation = "createWebhookFunction"
	OpDeleteWebhook          Operation = "deleteWebhookFunction"
	OpGetWebhooks            Operation = "getWebhooksFunction"
	OpAddTracking            Operation = "addTrackingFunction"
	OpTrackingWebhookHandler Operation = "createTrackingWebhookHandler"
	OpCancelPurchaseHandler  Operation = "cancelPurchaseWebhookHandler"
)

// Storefront (shop) side operations
const (
	OpOrderWebhookHandler    Operation = "createOrderWebhookHandler"
	OpCancelOrderHandler     Operation = "cancelOrderWebhookHandler"
	OpUpdateProduct          Operation = "updateProductFunction"
	OpSearchOrders           Operation = "searchOrdersFunction"
	OpAddCartToPlatformOrder Operation = "addCartToPlatformOrderFunction"
	OpOAuth                  Operation = "oAuthFunction"
	OpOAuthCallback          Operation = "oAuthCallbackFunction"
)

// PlatformKind distinguishes storefront platforms from fulfillment platforms
type PlatformKind string

const (
	PlatformKindShop    PlatformKind = "SHOP"
	PlatformKindChannel PlatformKind = "CHANNEL"
)

// IsValid returns true if the kind is known
func (k PlatformKind) IsValid() bool {
	return k == PlatformKindShop || k == PlatformKindChannel
}

// addTrackingFunction is a fulfillment operation that storefronts also
// implement: the engine forwards tracking to the order's shop.
var shopOperations = []Operation{
	OpOrderWebhookHandler,
	OpCancelOrderHandler,
	OpUpdateProduct,
	OpSearchOrders,
	OpAddCartToPlatformOrder,
	OpCreateWebhook,
	OpDeleteWebhook,
	OpGetWebhooks,
	OpSearchProducts,
	OpGetProduct,
	OpAddTracking,
	OpOAuth,
	OpOAuthCallback,
}

var channelOperations = []Operation{
	OpSearchProducts,
	OpGetProduct,
	OpCreatePurchase,
	OpCreateWebhook,
	OpDeleteWebhook,
	OpGetWebhooks,
	OpAddTracking,
	OpTrackingWebhookHandler,
	OpCancelPurchaseHandler,
	OpOAuth,
	OpOAuthCallback,
}

// Operations returns the operations a platform of this kind may declare
func (k PlatformKind) Operations() []Operation {
	switch k {
	case PlatformKindShop:
		return shopOperations
	case PlatformKindChannel:
		return channelOperations
	default:
		return nil
	}
}

// Allows reports whether op may be declared by a platform of this kind
func (k PlatformKind) Allows(op Operation) bool {
	for _, o := range k.Operations() {
		if o == op {
			return true
		}
	}
	return false
}
