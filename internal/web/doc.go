// Package web serves the todo lists over HTTP.
//
// Routes are registered on a gorilla/mux router. Every request carries a
// gorilla/sessions cookie session, which holds flash messages and, for the
// session backend, the lists themselves. Handlers reach storage only through
// store.Store, obtained from the configured Backend once per request, so they
// never branch on the backend kind.
//
// Views are html/template files embedded from templates/. Each page is parsed
// together with layout.html and rendered through the "layout" template.
package web
