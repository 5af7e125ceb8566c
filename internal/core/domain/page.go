package domain

// Surface is a navigation target.
type Surface string

const (
	SurfaceLogin     Surface = "login"
	SurfaceDashboard Surface = "dashboard"
)

// Page describes an authenticated view and its access rule.
type Page struct {
	Name      string
	AdminOnly bool
}

var (
	PageDashboard    = Page{Name: "dashboard"}
	PageClientes     = Page{Name: "clientes"}
	PageProductos    = Page{Name: "productos"}
	PagePedidos      = Page{Name: "pedidos"}
	PageDevoluciones = Page{Name: "devoluciones"}
	PageResumenDia   = Page{Name: "resumen-dia"}
	PageUsuarios     = Page{Name: "usuarios", AdminOnly: true}
)

// Header is the view-model of the signed-in user banner.
type Header struct {
	Name          string
	RoleLabel     string
	Avatar        string
	ShowUsersMenu bool
}

// NewHeader builds the banner view-model from the cached user.
func NewHeader(u SessionUser) Header {
	return Header{
		Name:          u.Name,
		RoleLabel:     u.RoleLabel(),
		Avatar:        u.Initial(),
		ShowUsersMenu: u.IsAdmin(),
	}
}
