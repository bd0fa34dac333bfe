package testkit

import (
	"fmt"

	"markc/internal/schema"
)

// Catalog is a small type catalog covering the framework types and the local
// types used across package tests.
const Catalog = `
[[namespace]]
uri = "http://schemas.microsoft.com/winfx/2006/xaml/presentation"
code = ["Windows.UI.Xaml.Controls", "Windows.UI.Xaml"]

[[type]]
name = "Windows.UI.Xaml.DependencyObject"

[[type]]
name = "Windows.UI.Xaml.RoutedEventArgs"

[[type]]
name = "Windows.UI.Xaml.Controls.TextChangedEventArgs"
base = "Windows.UI.Xaml.RoutedEventArgs"

[[type]]
name = "Windows.UI.Xaml.RoutedEventHandler"
kind = "delegate"
  [[type.invoke]]
  name = "sender"
  type = "object"
  [[type.invoke]]
  name = "e"
  type = "Windows.UI.Xaml.RoutedEventArgs"

[[type]]
name = "Windows.UI.Xaml.Controls.TextChangedEventHandler"
kind = "delegate"
  [[type.invoke]]
  name = "sender"
  type = "object"
  [[type.invoke]]
  name = "e"
  type = "Windows.UI.Xaml.Controls.TextChangedEventArgs"

[[type]]
name = "Windows.UI.Xaml.Visibility"
kind = "enum"
enum = ["Visible", "Collapsed"]

[[type]]
name = "Windows.UI.Xaml.UIElement"
base = "Windows.UI.Xaml.DependencyObject"
  [[type.member]]
  name = "Visibility"
  type = "Windows.UI.Xaml.Visibility"
  observable = true

[[type]]
name = "Windows.UI.Xaml.FrameworkElement"
base = "Windows.UI.Xaml.UIElement"
  [[type.member]]
  name = "Name"
  type = "string"
  observable = true
  [[type.member]]
  name = "DataContext"
  type = "object"
  observable = true
  [[type.member]]
  name = "Tag"
  type = "object"
  observable = true
  [[type.member]]
  name = "Width"
  type = "double"
  observable = true
  [[type.member]]
  name = "Loaded"
  kind = "event"
  type = "Windows.UI.Xaml.RoutedEventHandler"
  [[type.member]]
  name = "Resources"
  type = "Windows.UI.Xaml.ResourceDictionary"

[[type]]
name = "Windows.UI.Xaml.ResourceDictionary"
dictionary = true
key = "object"
item = "object"

[[type]]
name = "Windows.UI.Xaml.DataTemplate"

[[type]]
name = "Windows.UI.Xaml.Controls.Primitives.FlyoutBase"
base = "Windows.UI.Xaml.DependencyObject"

[[type]]
name = "Windows.UI.Xaml.Controls.MenuFlyout"
base = "Windows.UI.Xaml.Controls.Primitives.FlyoutBase"

[[type]]
name = "Windows.UI.Xaml.Controls.UIElementCollection"
collection = true
item = "Windows.UI.Xaml.UIElement"

[[type]]
name = "Windows.UI.Xaml.Controls.Panel"
base = "Windows.UI.Xaml.FrameworkElement"
  [[type.member]]
  name = "Children"
  type = "Windows.UI.Xaml.Controls.UIElementCollection"
  readonly = true

[[type]]
name = "Windows.UI.Xaml.Controls.Grid"
base = "Windows.UI.Xaml.Controls.Panel"
  [[type.member]]
  name = "Row"
  type = "int"
  attachable = true
  observable = true
  static = true

[[type]]
name = "Windows.UI.Xaml.Controls.StackPanel"
base = "Windows.UI.Xaml.Controls.Panel"

[[type]]
name = "Windows.UI.Xaml.Controls.Control"
base = "Windows.UI.Xaml.FrameworkElement"
  [[type.member]]
  name = "IsEnabled"
  type = "bool"
  observable = true

[[type]]
name = "Windows.UI.Xaml.Controls.ContentControl"
base = "Windows.UI.Xaml.Controls.Control"
  [[type.member]]
  name = "Content"
  type = "object"
  observable = true

[[type]]
name = "Windows.UI.Xaml.Controls.Button"
base = "Windows.UI.Xaml.Controls.ContentControl"
  [[type.member]]
  name = "Click"
  kind = "event"
  type = "Windows.UI.Xaml.RoutedEventHandler"
  [[type.member]]
  name = "ClickCount"
  kind = "field"
  type = "int"

[[type]]
name = "Windows.UI.Xaml.Controls.TextBlock"
base = "Windows.UI.Xaml.FrameworkElement"
  [[type.member]]
  name = "Text"
  type = "string"
  observable = true
  [[type.member]]
  name = "MaxLines"
  type = "int"

[[type]]
name = "Windows.UI.Xaml.Controls.TextBox"
base = "Windows.UI.Xaml.Controls.Control"
  [[type.member]]
  name = "Text"
  type = "string"
  observable = true
  [[type.member]]
  name = "TextChanged"
  kind = "event"
  type = "Windows.UI.Xaml.Controls.TextChangedEventHandler"

[[type]]
name = "Windows.UI.Xaml.Controls.ListView"
base = "Windows.UI.Xaml.Controls.Control"
  [[type.member]]
  name = "ItemsSource"
  type = "object"
  observable = true
  [[type.member]]
  name = "ItemTemplate"
  type = "Windows.UI.Xaml.DataTemplate"
  observable = true

[[type]]
name = "Windows.UI.Xaml.Controls.Page"
base = "Windows.UI.Xaml.Controls.UserControl"

[[type]]
name = "Windows.UI.Xaml.Controls.UserControl"
base = "Windows.UI.Xaml.Controls.Control"
  [[type.member]]
  name = "Content"
  type = "Windows.UI.Xaml.UIElement"
  observable = true

[[type]]
name = "App.MainPage"
base = "Windows.UI.Xaml.Controls.Page"
local = true
  [[type.member]]
  name = "ViewModel"
  type = "App.ViewModel"
  readonly = true
  [[type.member]]
  name = "Title"
  type = "string"
  [[type.member]]
  name = "Tag"
  type = "App.Person"
  [[type.member]]
  name = "OnClick"
  kind = "method"
    [[type.member.param]]
    name = "sender"
    type = "object"
    [[type.member.param]]
    name = "e"
    type = "Windows.UI.Xaml.RoutedEventArgs"
  [[type.member]]
  name = "OnReset"
  kind = "method"
  [[type.member]]
  name = "OnTyped"
  kind = "method"
    [[type.member.param]]
    name = "sender"
    type = "object"
    [[type.member.param]]
    name = "e"
    type = "Windows.UI.Xaml.Controls.TextChangedEventArgs"
  [[type.member]]
  name = "OnWrong"
  kind = "method"
    [[type.member.param]]
    name = "sender"
    type = "object"
    [[type.member.param]]
    name = "count"
    type = "int"
  [[type.member]]
  name = "OnAny"
  kind = "method"
    [[type.member.param]]
    name = "sender"
    type = "object"
    [[type.member.param]]
    name = "e"
    type = "object"
  [[type.member]]
  name = "OnAny"
  kind = "method"
    [[type.member.param]]
    name = "sender"
    type = "object"
    [[type.member.param]]
    name = "e"
    type = "Windows.UI.Xaml.RoutedEventArgs"
  [[type.member]]
  name = "Format"
  kind = "method"
  type = "string"
    [[type.member.param]]
    name = "value"
    type = "string"

[[type]]
name = "App.ViewModel"
local = true
  [[type.member]]
  name = "Person"
  type = "App.Person"
  observable = true
  [[type.member]]
  name = "Items"
  type = "App.PersonList"
  observable = true
  [[type.member]]
  name = "Caption"
  type = "string"
  readonly = true
  [[type.member]]
  name = "Count"
  type = "int"

[[type]]
name = "App.Person"
local = true
  [[type.member]]
  name = "Name"
  type = "string"
  observable = true
  [[type.member]]
  name = "Age"
  type = "int"
  observable = true
  [[type.member]]
  name = "Address"
  type = "App.Address"
  [[type.member]]
  name = "Manager"
  type = "App.Person"

[[type]]
name = "App.Address"
local = true
  [[type.member]]
  name = "City"
  type = "string"
  [[type.member]]
  name = "Street"
  type = "string"

[[type]]
name = "App.PersonList"
local = true
collection = true
item = "App.Person"
`

// MustRegistry decodes Catalog and panics on error.
func MustRegistry() *schema.Registry {
	reg, err := schema.DecodeCatalog(Catalog)
	if err != nil {
		panic(fmt.Errorf("testkit catalog: %w", err))
	}
	return reg
}
