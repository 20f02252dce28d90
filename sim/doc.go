// Package sim implements the four-tier beer-game supply chain.
//
// # Reading Guide
//
//   - agent.go: one tier's economic state and its four weekly phases
//   - behavior.go: the closed set of tier behaviours (retailer, intermediate, factory)
//   - policy.go: ordering strategies (order-up-to, predictive with fallback)
//   - engine.go: Step, the demand-shift rule, disruptions and bullwhip detection
//
// # Week Order
//
// Each Step runs, for every agent: ReceiveShipment, FulfillDownstreamOrders
// (Retailer first, with customer demand), PlaceUpstreamOrder, RecordState.
// Orders create backlog upstream; stock only moves through shipments.
//
// # Collaborators
//
// Predictors and narrators are injected through EngineConfig; both are
// optional. Implementations live in sub-packages:
//   - sim/predict/: trained order-quantity models
//   - sim/narrate/: event narrators (template, OpenAI-compatible LLM)
//   - sim/demand/: customer-demand schedules
//   - sim/trace/: ordering-decision trace
//   - sim/session/: concurrent sessions and the week-by-week run loop
//   - sim/store/: archive of completed runs
package sim
