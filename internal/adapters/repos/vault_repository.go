package repos

import (
	"context"
	"fmt"

	"github.com/hashicorp/vault/api"

	"github.com/architeacher/svc-pattern-queue/internal/ports"
)

var _ ports.SecretsRepository = (*VaultRepository)(nil)

// VaultRepository reads the broker credentials of the service from Vault's logical backend.
type VaultRepository struct {
	vaultClient *api.Client
}

func NewVaultRepository(vaultClient *api.Client) *VaultRepository {
	return &VaultRepository{
		vaultClient: vaultClient,
	}
}

func (r *VaultRepository) SetToken(v string) {
	r.vaultClient.SetToken(v)
}

// GetSecrets returns nil without an error when nothing is stored at path.
func (r *VaultRepository) GetSecrets(ctx context.Context, path string) (*api.Secret, error) {
	secret, err := r.vaultClient.Logical().ReadWithContext(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("vault read %s: %w", path, err)
	}

	return secret, nil
}

func (r *VaultRepository) WriteWithContext(ctx context.Context, path string, data map[string]any) (*api.Secret, error) {
	secret, err := r.vaultClient.Logical().WriteWithContext(ctx, path, data)
	if err != nil {
		return nil, fmt.Errorf("vault write %s: %w", path, err)
	}

	return secret, nil
}
