package assistant

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"path"
	"strings"
	"time"

	"github.com/beam-cloud/satchel/pkg/command"
	"github.com/beam-cloud/satchel/pkg/drive"
	"github.com/beam-cloud/satchel/pkg/summary"
	"github.com/beam-cloud/satchel/pkg/types"
)

// executorListLimit caps how many children a LIST or SUMMARY reads; chat
// replies get unwieldy beyond this
const executorListLimit = 50

// AttachmentFetcher retrieves transport-hosted media so UPLOAD can relay the
// bytes into Drive. The transport implements it; Twilio media URLs require
// basic auth with the account credentials.
type AttachmentFetcher interface {
	Fetch(ctx context.Context, url string) (data []byte, contentType string, err error)
}

// Executor runs one parsed command against the user's file store and renders
// the reply text. A returned error means the gate must act (for example a
// credential rejection); everything user-correctable is already a reply.
type Executor interface {
	Execute(ctx context.Context, userID, accessToken string, cmd command.Command, att *types.Attachment) (string, error)
}

// DriveExecutor executes commands against the Google Drive API
type DriveExecutor struct {
	client     *drive.Client
	resolver   *drive.PathResolver
	summarizer *summary.Summarizer
	fetcher    AttachmentFetcher
}

var _ Executor = (*DriveExecutor)(nil)

func NewDriveExecutor(client *drive.Client, resolver *drive.PathResolver, summarizer *summary.Summarizer, fetcher AttachmentFetcher) *DriveExecutor {
	return &DriveExecutor{
		client:     client,
		resolver:   resolver,
		summarizer: summarizer,
		fetcher:    fetcher,
	}
}

func (e *DriveExecutor) Execute(ctx context.Context, userID, accessToken string, cmd command.Command, att *types.Attachment) (string, error) {
	switch cmd.Kind {
	case command.KindList:
		return e.list(ctx, accessToken, userID, cmd)
	case command.KindUpload:
		return e.upload(ctx, accessToken, userID, cmd, att)
	case command.KindDelete:
		return e.remove(ctx, accessToken, userID, cmd)
	case command.KindMove:
		return e.move(ctx, accessToken, userID, cmd)
	case command.KindRename:
		return e.rename(ctx, accessToken, cmd)
	case command.KindSummarize:
		return e.summarize(ctx, accessToken, userID, cmd)
	default:
		return "", fmt.Errorf("unsupported command kind: %s", cmd.Kind)
	}
}

func (e *DriveExecutor) list(ctx context.Context, token, userID string, cmd command.Command) (string, error) {
	folderID, err := e.resolver.ResolvePath(ctx, token, userID, cmd.Path)
	if err != nil {
		return lookupReply(err)
	}

	files, err := e.client.ListChildren(ctx, token, folderID, executorListLimit)
	if err != nil {
		return actionReply("❌ An error occurred while listing files: ", err)
	}

	return RenderList(cmd.Path, files), nil
}

func (e *DriveExecutor) upload(ctx context.Context, token, userID string, cmd command.Command, att *types.Attachment) (string, error) {
	if att == nil {
		return command.UploadNeedsAttachment, nil
	}

	data, fetchedType, err := e.fetcher.Fetch(ctx, att.URL)
	if err != nil {
		return fmt.Sprintf("Error downloading file from Twilio: %v", err), nil
	}

	folderID, err := e.resolver.ResolvePath(ctx, token, userID, cmd.Folder)
	if err != nil {
		execErr := &types.ErrExecutor{}
		if execErr.From(err) && execErr.Kind == types.ExecutorErrNotFound {
			return fmt.Sprintf("❌ Upload failed: Destination folder '%s' not found.", cmd.Folder), nil
		}
		return lookupReply(err)
	}

	name := uploadName(cmd.Filename, att, fetchedType)
	mimeType := uploadMimeType(name, att.ContentType, fetchedType)

	file, err := e.client.Upload(ctx, token, folderID, name, mimeType, data)
	if err != nil {
		return actionReply("❌ Upload failed due to a Drive API error. Details: ", err)
	}

	// Drive silently files the upload under root when the parent was not
	// applied; verify the parent that came back before claiming success
	for _, parent := range file.Parents {
		if parent == folderID {
			return fmt.Sprintf("✅ Successfully uploaded '%s' to /%s (ID: %s).", name, cmd.Folder, file.ID), nil
		}
	}
	return fmt.Sprintf("⚠️ Warning: Uploaded to Drive root. Folder ID was likely invalid or permissions failed. File ID: %s.", file.ID), nil
}

func (e *DriveExecutor) remove(ctx context.Context, token, userID string, cmd command.Command) (string, error) {
	file, err := e.findFileInFolder(ctx, token, userID, cmd.Folder, cmd.Filename)
	if err != nil {
		return lookupReply(err)
	}

	if err := e.client.Trash(ctx, token, file.ID); err != nil {
		return actionReply("❌ An error occurred during deletion: ", err)
	}

	return fmt.Sprintf("🗑️ Successfully moved file '%s' to trash.", cmd.Filename), nil
}

func (e *DriveExecutor) move(ctx context.Context, token, userID string, cmd command.Command) (string, error) {
	file, err := e.findFileInFolder(ctx, token, userID, cmd.SourceFolder, cmd.Filename)
	if err != nil {
		return lookupReply(err)
	}

	destID, err := e.resolver.ResolvePath(ctx, token, userID, cmd.DestFolder)
	if err != nil {
		return classifiedReply("❌ Destination Error: ", err)
	}

	parents, err := e.client.GetParents(ctx, token, file.ID)
	if err != nil {
		return actionReply("❌ An error occurred during move: ", err)
	}

	removeParent := ""
	if len(parents) > 0 {
		removeParent = parents[0]
	}

	if err := e.client.Move(ctx, token, file.ID, destID, removeParent); err != nil {
		return actionReply("❌ An error occurred during move: ", err)
	}

	return fmt.Sprintf("➡️ Successfully moved '%s' from /%s to /%s.", cmd.Filename, cmd.SourceFolder, cmd.DestFolder), nil
}

func (e *DriveExecutor) rename(ctx context.Context, token string, cmd command.Command) (string, error) {
	file, err := e.client.FindFileAnywhere(ctx, token, cmd.OldName)
	if err != nil {
		return lookupReply(err)
	}
	if file == nil {
		return fmt.Sprintf("❌ Error: File '%s' not found anywhere in your Drive.", cmd.OldName), nil
	}

	if err := e.client.Rename(ctx, token, file.ID, cmd.NewName); err != nil {
		return actionReply("❌ An error occurred during rename: ", err)
	}

	return fmt.Sprintf("✏️ Successfully renamed '%s' to '%s'.", cmd.OldName, cmd.NewName), nil
}

func (e *DriveExecutor) summarize(ctx context.Context, token, userID string, cmd command.Command) (string, error) {
	if e.summarizer == nil || !e.summarizer.IsConfigured() {
		return ReplySummaryUnavailable, nil
	}

	folderID, err := e.resolver.ResolvePath(ctx, token, userID, cmd.Folder)
	if err != nil {
		return lookupReply(err)
	}

	files, err := e.client.ListChildren(ctx, token, folderID, executorListLimit)
	if err != nil {
		return actionReply("❌ A Google Drive API error occurred: ", err)
	}
	if len(files) == 0 {
		return fmt.Sprintf("📂 Folder /%s is empty, nothing to summarize.", cmd.Folder), nil
	}

	var docs []summary.Document
	var names []string
	for _, f := range files {
		if f.IsFolder {
			continue
		}
		names = append(names, f.Name)

		var data []byte
		if drive.IsExportable(f.MimeType) {
			data, err = e.client.ExportText(ctx, token, f.ID)
		} else {
			data, err = e.client.Download(ctx, token, f.ID)
		}
		if err != nil {
			return actionReply("❌ A Google Drive API error occurred: ", err)
		}

		docs = append(docs, summary.Document{
			Name: f.Name,
			Text: strings.ToValidUTF8(string(data), ""),
		})
	}

	text, err := e.summarizer.Summarize(ctx, docs)
	if err != nil {
		if errors.Is(err, summary.ErrNoReadableText) {
			return fmt.Sprintf("⚠️ Warning: Found files %s, but could not extract any readable text.", strings.Join(names, ", ")), nil
		}
		return fmt.Sprintf("❌ An unexpected error occurred during summarization: %v", err), nil
	}

	return fmt.Sprintf("🤖 *AI Summary for /%s*\n\n%s", cmd.Folder, text), nil
}

// findFileInFolder resolves the folder path, then locates the named file
// inside it. Missing files come back as not-found executor errors carrying
// the user-facing message.
func (e *DriveExecutor) findFileInFolder(ctx context.Context, token, userID, folder, filename string) (*drive.File, error) {
	folderID, err := e.resolver.ResolvePath(ctx, token, userID, folder)
	if err != nil {
		return nil, err
	}

	file, err := e.client.FindFileInFolder(ctx, token, folderID, filename)
	if err != nil {
		return nil, err
	}
	if file == nil {
		return nil, &types.ErrExecutor{
			Kind:    types.ExecutorErrNotFound,
			Op:      "files.list",
			Message: fmt.Sprintf("File '%s' not found in folder '%s'.", filename, folder),
		}
	}
	return file, nil
}

// lookupReply renders a failure from the lookup phase of a command
func lookupReply(err error) (string, error) {
	return classifiedReply("❌ Error: ", err)
}

// actionReply renders a failure from the action phase, with per-command context
func actionReply(prefix string, err error) (string, error) {
	return classifiedReply(prefix, err)
}

// classifiedReply turns executor errors into reply text. Credential
// rejections and unclassified errors propagate so the gate can handle them.
func classifiedReply(prefix string, err error) (string, error) {
	rejected := &types.ErrCredentialRejected{}
	if rejected.From(err) {
		return "", err
	}

	execErr := &types.ErrExecutor{}
	if execErr.From(err) {
		return prefix + execErr.Message, nil
	}
	return "", err
}

// uploadName picks the Drive filename: the name given in the command, else
// the attachment's original filename, else a timestamped name with an
// extension derived from the content type.
func uploadName(requested string, att *types.Attachment, fetchedType string) string {
	if requested != "" {
		return requested
	}
	if att.Filename != "" {
		return att.Filename
	}

	contentType := att.ContentType
	if contentType == "" {
		contentType = fetchedType
	}
	return "upload-" + time.Now().UTC().Format("20060102-150405") + extensionForType(contentType)
}

// uploadMimeType guesses the media type for the Drive metadata, preferring
// the filename extension like desktop clients do
func uploadMimeType(name, attachmentType, fetchedType string) string {
	if byName := mime.TypeByExtension(path.Ext(name)); byName != "" {
		return byName
	}
	if attachmentType != "" {
		return attachmentType
	}
	if fetchedType != "" {
		return fetchedType
	}
	return "application/octet-stream"
}

func extensionForType(contentType string) string {
	if contentType == "" {
		return ""
	}
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		contentType = mediaType
	}

	exts, err := mime.ExtensionsByType(contentType)
	if err != nil || len(exts) == 0 {
		return ""
	}
	return exts[0]
}
