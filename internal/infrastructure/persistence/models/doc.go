// Package models holds the GORM rows behind the repositories. Domain types
// never carry gorm tags; models convert itself with ToDomain and a
// <Name>ModelFromDomain constructor.
//
// Aggregates scoped to a campaign year embed CampaignAggregateModel. Child
// rows such as t-shirt sizes and questions, and cities, which outlive a
// single year, embed BaseModel only.
package models
