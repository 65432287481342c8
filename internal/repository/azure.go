package repository

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
)

// AzureRepository fetches a descriptor blob from Azure Blob Storage.
//
// Authentication uses azidentity.DefaultAzureCredential:
//   - Environment variables (AZURE_CLIENT_ID, AZURE_TENANT_ID, AZURE_CLIENT_SECRET)
//   - Managed identity
//   - Azure CLI credentials
type AzureRepository struct {
	account   string
	container string
	blob      string

	download func(ctx context.Context, account, container, blob string) (io.ReadCloser, error)
}

// NewAzureRepository creates a repository from an Azure URL.
//
// URL format: az://account/container/path/to/build.hcl
func NewAzureRepository(url string) (*AzureRepository, error) {
	account, container, blob, err := parseAzureURL(url)
	if err != nil {
		return nil, err
	}
	if blob == "" || strings.HasSuffix(blob, "/") {
		return nil, fmt.Errorf("invalid Azure URL: missing blob path: %s", url)
	}

	return &AzureRepository{
		account:   account,
		container: container,
		blob:      blob,
		download:  downloadAzureBlob,
	}, nil
}

// Protocol returns "az".
func (r *AzureRepository) Protocol() string {
	return "az"
}

// ServiceURL returns the blob service endpoint of the storage account.
func (r *AzureRepository) ServiceURL() string {
	return serviceURL(r.account)
}

// Fetch downloads the descriptor blob.
func (r *AzureRepository) Fetch(ctx context.Context) (*Document, error) {
	body, err := r.download(ctx, r.account, r.container, r.blob)
	if err != nil {
		return nil, fmt.Errorf("failed to download blob az://%s/%s/%s: %w",
			r.account, r.container, r.blob, err)
	}
	defer body.Close()

	data, err := readDescriptor(body)
	if err != nil {
		return nil, fmt.Errorf("failed to read blob: %w", err)
	}

	return &Document{Name: baseName(r.blob), Data: data}, nil
}

func serviceURL(account string) string {
	return fmt.Sprintf("https://%s.blob.core.windows.net", account)
}

func downloadAzureBlob(ctx context.Context, account, container, blob string) (io.ReadCloser, error) {
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure credential: %w", err)
	}

	client, err := azblob.NewClient(serviceURL(account), cred, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure blob client: %w", err)
	}

	resp, err := client.DownloadStream(ctx, container, blob, nil)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// parseAzureURL parses an Azure Blob Storage URL into account, container, and blob path.
// URL format: az://account/container/path/to/blob
func parseAzureURL(url string) (account, container, blobPath string, err error) {
	path, ok := strings.CutPrefix(url, "az://")
	if !ok {
		return "", "", "", fmt.Errorf("invalid Azure URL: must start with az://")
	}

	parts := strings.SplitN(path, "/", 3)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", "", fmt.Errorf("invalid Azure URL: must be az://account/container[/path]")
	}

	account = parts[0]
	container = parts[1]
	if len(parts) > 2 {
		blobPath = parts[2]
	}
	return account, container, blobPath, nil
}
