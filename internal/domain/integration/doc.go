// Package integration contains the Integration bounded context.
// It describes the external commerce platforms the engine talks to and the
// uniform adapter contract every platform implementation must satisfy.
//
// Key concepts:
//   - Platform: declares, per Operation, whether a built-in module or a remote
//     HTTP endpoint implements it
//   - Shop / Channel: a storefront or fulfillment target bound to a Platform
//   - Executor: port that invokes a named Operation against a PlatformConfig
//   - WebhookEvent: canonical events produced from platform webhooks
//
// Design Pattern: Ports & Adapters
//   - Ports (interfaces) are defined here in the domain layer
//   - Adapters (implementations) are in the infrastructure layer
package integration
