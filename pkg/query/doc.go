// Package query compila la query string de un listado (filtros, búsqueda rápida,
// orden y paginación) en un predicado y un comparador aplicables a cualquier
// colección de un tipo de registro, más un conteo total independiente.
//
// Gramática aceptada:
//
//	pageNumber=2&pageSize=10&sortBy=title&sortDirection=desc
//	query=acme||name|code
//	status=Active|Pending||eq&age=18||gte
//
// Las claves reservadas son pageNumber, pageSize, sortBy, sortDirection y query;
// cualquier otra clave es un filtro sobre el campo del mismo nombre (sin distinguir
// mayúsculas). Los valores de un filtro se combinan con OR y los filtros entre sí
// con AND.
//
// Uso típico:
//
//	spec, err := query.ParseFor[*Task](c.Request.URL.RawQuery, "createdAt")
//	if err != nil {
//		// *query.ArgumentError -> 400
//	}
//	page, err := query.ExecuteGetManyAndCount(ctx, spec, repo)
package query
