// Package tools invokes the SEO content generation tools.
//
// Every tool is a remote webhook that accepts the form input as a JSON
// object and answers with an arbitrary JSON document. Endpoints come from
// TOOLS_*_URL environment variables, one per subscription.Resource.
package tools
