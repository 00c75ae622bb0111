// Package main is the entry point of SupplyConnect, the multi-tenant back-office
// of the supply chain portal. It authenticates users against the directory of
// their country, mirrors directory groups and users into the application
// database and serves the administration API built with Fiber.
package main
