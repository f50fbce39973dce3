// Package http serves the dashboard: server-rendered pages and forms over
// the resource registry.
//
// Routes mount under the configured base path (default /dashboard):
//   - Home: GET {base}
//   - Lists: GET {base}/{resource}?page=&limit=&searchTerm=
//   - Forms: GET|POST {base}/{resource}/add, GET|POST {base}/{resource}/edit/{id}
//   - Details: GET {base}/{resource}/details/{id}
//   - Mutations: POST {base}/{resource}/delete/{id}, POST {base}/{resource}/visibility/{id}
//   - Upload previews: POST {base}/uploads/preview
//
// Singleton sections redirect their list route to the edit form.
package http
