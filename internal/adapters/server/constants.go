package server

const (
	OperationUpload       = "upload"
	OperationCreateFolder = "create_folder"
	OperationDelete       = "delete"
	OperationRename       = "rename"

	LogFilesUploaded       = "Files uploaded"
	LogFolderCreated       = "Folder created"
	LogFileOrFolderDeleted = "File or folder deleted"
	LogFileOrFolderRenamed = "File or folder renamed"

	QueryParamPath       = "path"
	FormParamFiles       = "files"
	FormParamName        = "name"
	FormParamOld         = "old"
	FormParamNew         = "new"
	FormParamPath        = "path"
	RedirectPathTemplate = "/?path="

	// лимит памяти на разбор multipart-формы, остальное уходит во временные файлы
	multipartMemoryLimit = 32 << 20
)
