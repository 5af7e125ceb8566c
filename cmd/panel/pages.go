package main

import (
	"net/url"

	"github.com/distribuidoracarol/panel/internal/core/domain"
)

// pageLoads lists the independent GETs each page issues on load.
var pageLoads = map[string]struct {
	page  domain.Page
	paths []string
}{
	"dashboard":    {domain.PageDashboard, []string{"/pedidos/resumen-dia"}},
	"clientes":     {domain.PageClientes, []string{"/clientes", "/clientes/zonas"}},
	"productos":    {domain.PageProductos, []string{"/productos", "/productos/unidades-medida"}},
	"pedidos":      {domain.PagePedidos, []string{"/pedidos", "/clientes/todos", "/productos/todos"}},
	"devoluciones": {domain.PageDevoluciones, []string{"/devoluciones", "/clientes/todos", "/productos/todos", "/devoluciones/motivos"}},
	"resumen-dia":  {domain.PageResumenDia, []string{"/pedidos/resumen-dia"}},
	"usuarios":     {domain.PageUsuarios, []string{"/usuarios"}},
}

const summaryPDFPath = "/pedidos/resumen-dia/pdf"

// withDate appends ?fecha= when date is set.
func withDate(path, date string) string {
	if date == "" {
		return path
	}
	return path + "?" + url.Values{"fecha": {date}}.Encode()
}
