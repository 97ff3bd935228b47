package inventory

import (
	"context"

	"github.com/jhoicas/stock-ledger/internal/domain"
	"github.com/jhoicas/stock-ledger/internal/domain/entity"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

type tenantCtxKey struct{}

// WithTenant deja el tenant autenticado en el contexto. Solo lo llama la capa de autenticación;
// el tenant nunca se toma del cuerpo de la petición.
func WithTenant(ctx context.Context, tenantID int64) context.Context {
	return context.WithValue(ctx, tenantCtxKey{}, tenantID)
}

// TenantFromContext devuelve el tenant autenticado, si existe.
func TenantFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(tenantCtxKey{}).(int64)
	return id, ok
}

// TenantGuard aísla cada operación del motor y de las consultas al tenant del caller.
type TenantGuard struct {
	log *logger.Logger
}

// NewTenantGuard construye el guard.
func NewTenantGuard(log *logger.Logger) *TenantGuard {
	if log == nil {
		log = logger.Nop()
	}
	return &TenantGuard{log: log.Named("tenant_guard")}
}

// Resolve obtiene el tenant del contexto; sin tenant válido la operación no se ejecuta.
func (g *TenantGuard) Resolve(ctx context.Context) (int64, error) {
	id, ok := TenantFromContext(ctx)
	if !ok || id <= 0 {
		return 0, domain.ErrUnauthorized
	}
	return id, nil
}

// Check rechaza registros de otro tenant con ErrTenantMismatch, que para el caller
// se comporta igual que ErrRecordNotFound.
func (g *TenantGuard) Check(tenantID int64, rec *entity.StockRecord) error {
	if rec == nil || rec.TenantID != tenantID {
		g.log.Warn().
			Int64("tenant_id", tenantID).
			Str("key", keyOf(rec)).
			Msg("acceso a registro de otro tenant bloqueado")
		return domain.ErrTenantMismatch
	}
	return nil
}

// Filter descarta de una búsqueda secundaria los registros ajenos al tenant.
func (g *TenantGuard) Filter(tenantID int64, recs []*entity.StockRecord) []*entity.StockRecord {
	out := make([]*entity.StockRecord, 0, len(recs))
	for _, r := range recs {
		if r != nil && r.TenantID == tenantID {
			out = append(out, r)
		}
	}
	return out
}

func keyOf(rec *entity.StockRecord) string {
	if rec == nil {
		return ""
	}
	return rec.Key().String()
}
