// Package authevents consumes sign-in and sign-out events from RabbitMQ
// and applies them to the subscription session manager.
package authevents
