package main

import (
	"fmt"
	"os"

	"github.com/DonovanMods/mc-mod-manager/internal/core"
	"github.com/DonovanMods/mc-mod-manager/internal/domain"

	"github.com/spf13/cobra"
)

var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "Manage mod tags",
	Long: `Define tags and attach them to mods.

A tag is written as <category>:<value>, where category is one of type,
functionality, translation or custom. A bare value is a custom tag.
Tags must be defined before they can be attached.

Examples:
  mcmm tags define type:library
  mcmm tags attach fabric-api type:library
  mcmm tags detach fabric-api type:library
  mcmm tags list
  mcmm tags list fabric-api
  mcmm tags undefine type:library`,
}

var tagsDefineCmd = &cobra.Command{
	Use:   "define <tag>",
	Short: "Define a tag",
	Args:  cobra.ExactArgs(1),
	RunE:  runTagsDefine,
}

var tagsUndefineCmd = &cobra.Command{
	Use:   "undefine <tag>",
	Short: "Remove a tag definition and detach it from every mod",
	Args:  cobra.ExactArgs(1),
	RunE:  runTagsUndefine,
}

var tagsAttachCmd = &cobra.Command{
	Use:   "attach <mod-id> <tag>...",
	Short: "Attach defined tags to a mod",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runTagsAttach,
}

var tagsDetachCmd = &cobra.Command{
	Use:   "detach <mod-id> <tag>...",
	Short: "Detach tags from a mod",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runTagsDetach,
}

var tagsListCmd = &cobra.Command{
	Use:   "list [mod-id]",
	Short: "List defined tags, or the tags of one mod",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runTagsList,
}

func init() {
	tagsCmd.AddCommand(tagsDefineCmd)
	tagsCmd.AddCommand(tagsUndefineCmd)
	tagsCmd.AddCommand(tagsAttachCmd)
	tagsCmd.AddCommand(tagsDetachCmd)
	tagsCmd.AddCommand(tagsListCmd)
	rootCmd.AddCommand(tagsCmd)
}

// parseTag converts a command-line tag argument
func parseTag(s string) (domain.TagRef, error) {
	tag, ok := domain.ParseTagRef(s)
	if !ok {
		return domain.TagRef{}, fmt.Errorf("invalid tag %q: use <category>:<value> (type, functionality, translation, custom)", s)
	}
	return tag, nil
}

func parseTags(args []string) ([]domain.TagRef, error) {
	tags := make([]domain.TagRef, 0, len(args))
	for _, a := range args {
		tag, err := parseTag(a)
		if err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, nil
}

func runTagsDefine(cmd *cobra.Command, args []string) error {
	tag, err := parseTag(args[0])
	if err != nil {
		return err
	}
	return withService(func(svc *core.Service) error {
		if err := svc.DefineTag(tag); err != nil {
			return fmt.Errorf("defining tag: %w", err)
		}
		fmt.Printf("Defined %s\n", tag)
		return nil
	})
}

func runTagsUndefine(cmd *cobra.Command, args []string) error {
	tag, err := parseTag(args[0])
	if err != nil {
		return err
	}
	return withService(func(svc *core.Service) error {
		if err := svc.UndefineTag(tag); err != nil {
			return fmt.Errorf("removing tag: %w", err)
		}
		fmt.Printf("Removed %s\n", tag)
		return nil
	})
}

func runTagsAttach(cmd *cobra.Command, args []string) error {
	tags, err := parseTags(args[1:])
	if err != nil {
		return err
	}
	modID := args[0]
	return withService(func(svc *core.Service) error {
		for _, tag := range tags {
			if err := svc.AttachTag(modID, tag); err != nil {
				return fmt.Errorf("attaching %s: %w", tag, err)
			}
		}
		fmt.Printf("Tagged %s with %d tag(s)\n", modID, len(tags))
		return nil
	})
}

func runTagsDetach(cmd *cobra.Command, args []string) error {
	tags, err := parseTags(args[1:])
	if err != nil {
		return err
	}
	modID := args[0]
	return withService(func(svc *core.Service) error {
		for _, tag := range tags {
			if err := svc.DetachTag(modID, tag); err != nil {
				return fmt.Errorf("detaching %s: %w", tag, err)
			}
		}
		fmt.Printf("Removed %d tag(s) from %s\n", len(tags), modID)
		return nil
	})
}

func runTagsList(cmd *cobra.Command, args []string) error {
	return withService(func(svc *core.Service) error {
		var tags []domain.TagRef
		if len(args) == 1 {
			tags = svc.Tags(args[0])
		} else {
			tags = svc.DefinedTags()
		}

		names := make([]string, 0, len(tags))
		for _, t := range tags {
			names = append(names, t.String())
		}
		if jsonOutput {
			return writeJSON(os.Stdout, names)
		}
		if len(names) == 0 {
			fmt.Println("No tags.")
			return nil
		}
		for _, n := range names {
			fmt.Println(n)
		}
		return nil
	})
}
