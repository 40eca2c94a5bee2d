package model

import (
	"errors"

	"github.com/abduss/modelvault/internal/apperror"
)

var (
	ErrInvalidFolder    = apperror.Validation("folder name is not valid")
	ErrInvalidImageType = apperror.Validation("image must be JPEG, PNG or WebP")
	ErrInvalidAssetType = apperror.Validation("3D file must be BLEND, BLEND1, X3D, GLB, GLTF, PLY, STL, OBJ, USDC, SVG, MTL, FBX, DAE or ABC")
	ErrFileTooLarge     = apperror.Validation("file exceeds the 100 MB limit")
	ErrEmptyFile        = apperror.Validation("file is empty")
	ErrMissingFiles     = apperror.Validation("an image and a 3D file are required")
	ErrFolderExists     = apperror.Validation("a model with this folder name already exists")
	ErrModelNotFound    = apperror.NotFound("no files found for this model")
	ErrNotOwner         = apperror.Forbidden("you can only modify your own models")
	// ErrIncompleteRename leaves the old prefix in place for a retry.
	ErrIncompleteRename = errors.New("rename copied fewer objects than listed")
)
